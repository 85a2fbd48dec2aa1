package router

const (
	msgHelp = "/start - start working with the bot\n" +
		"/help - show this help\n" +
		"/models - list available models\n" +
		"/model <name> - select a model\n" +
		"/newchat - start a new conversation\n" +
		"/history - show the last messages of the conversation\n" +
		"/clear - delete the current conversation\n" +
		"Just write me a message and I will pass it to the model. " +
		"Send a photo and I will extract the text from it."

	msgStart            = "Hi! I relay your messages to a language model.\nDefault model: %s\nUse /help to see the commands."
	msgModels           = "Available models:\n%s"
	msgModelUsage       = "Specify a model name after the command: /model <name>"
	msgModelNotFound    = "Model '%s' not found.\nAvailable models: %s"
	msgModelChanged     = "Model changed to: %s"
	msgNewChat          = "New conversation created. ID: %s | Model: %s"
	msgNoConversation   = "You have no active conversation."
	msgHistory          = "Recent messages:\n%s"
	msgHistoryEmpty     = "Conversation history is empty."
	msgDeleted          = "Conversation deleted."
	msgDeleteFailed     = "Could not delete the conversation."
	msgRecognized       = "Recognized text:\n%s"
	msgNoText           = "No text found in the image."
	msgDownloadFailed   = "Could not download the image, please send it again."
	msgUnknownCommand   = "Unknown command. Use /help to see the available commands."
	msgRemoteDown       = "The conversation service is unavailable, could not %s. Please try again later."
	msgRemoteMalformed  = "The conversation service returned an unexpected response, could not %s."
	msgRecognitionError = "An error occurred while recognizing the text."
	msgInternalError    = "Sorry, something went wrong, could not %s."
)
