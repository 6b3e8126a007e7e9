package conversation

// Choice is a selectable option rendered as a button.
type Choice struct {
	Label  string
	Action Action
}

// Response describes what the transport should show after an action.
type Response struct {
	// Text is the message body. Empty only for ignored actions.
	Text string
	// Choices are button rows. Nil removes any keyboard.
	Choices [][]Choice
	// Done is set when the action ended the active wizard.
	Done bool
	// Notice marks short informational replies that do not replace the
	// current message, such as "nothing to delete".
	Notice bool
	// Ignored marks actions that do not apply to the current state.
	Ignored bool
	// MainMenu asks the transport to show the main reply keyboard again.
	MainMenu bool
}

func ignored() Response {
	return Response{Ignored: true}
}
