package llm

// Extraction prompt. %s slots: user name, function name, custom instructions.
const extractionSystemPrompt = "You are an expert extraction algorithm with the task to extract long-term user preferences that will persist after the conversation. " +
	"Default is to not extract a preference. " +
	"Only extract relevant user preferences of the user %s from the in-car conversation between the user and the voice assistant. " +
	"Only extract the preferences mentioned in the '%s' function, strictly follow the function parameters format. " +
	"Users can delete categories for privacy reasons, so really make sure to only extract preferences that neatly fit into the category descriptions. " +
	"Avoid interpreting preferences to other topics. " +
	"If a category is not present, do not include it in the output. If no preference in the conversation or no fitting function parameter, return null. " +
	"%s"

// %s slots: conversation, user name.
const extractionHumanPrompt = "Conversation: \n===\n%s\n===\n" +
	"Only extract long-term preferences said or confirmed by the user %s, never from text or assumptions from the assistant."

// Maintenance classifier prompts. The MP variant allows several preferences
// per category, the MNP variant allows exactly one.
const maintenanceSystemMP = "You are a client to maintain a database storing user preferences. " +
	"Your task is to keep the storage up-to-date by performing a database function based on the incoming preference and existing preferences. " +
	"You must call a tool. " +
	"There are multiple preferences per category allowed, however not with the same attribute or very similar ones. " +
	"Examples: 1. (incoming: vegetarian, existing: vegetarian --> results in 'pass_preference'); " +
	"2. (incoming: vegetarian, existing: kosher --> results in 'append_preference'); " +
	"3. (incoming: vegetarian, existing: no vegetarian --> results in 'update_preference')."

const maintenanceSystemMNP = "You are a client to maintain a database storing user preferences. " +
	"Your task is to keep the storage up-to-date by performing a database function based on the incoming preference and existing preferences. " +
	"You must call a tool. " +
	"There can always only be stored one preference."

// Prepended to the system prompt on the amended second attempt.
const maintenanceRetryPrefix = "Your last run did not call a tool, make sure to call a tool. "

// %s slots: existing preferences JSON, incoming preference JSON.
const maintenanceHumanPrompt = "Existing Preferences: %s ### Incoming (NEW) Preference: %s"

const maintenanceInstructionPrompt = "First output your thought process (category check, text check, attribute check, multiple preferences within category allowed check), then call one function."

// Maintenance tool descriptions.
const (
	appendToolDescription = "appends incoming preference to database and keep existing preferences. Call if incoming preference attribute is different to existing preferences attributes, it can be of the same category"
	passToolDescription   = "passes incoming preference (so it is not inserted in database) and keep existing preferences. Call if incoming preference attribute is equal or very similar to one existing preference attribute"
	updateToolDescription = "deletes one existing preference and insert incoming preference. Call if incoming preference attribute is updating or contradicting one existing preference attribute, either the text or the attribute"
)
