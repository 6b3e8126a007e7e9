package bot

// Command constants for Telegram bot commands.
const (
	CommandStart       = "/start"
	CommandHelp        = "/help"
	CommandCancel      = "/cancel"
	CommandAdd         = "/add"
	CommandDelete      = "/delete"
	CommandAddFriend   = "/addfriend"
	CommandCategories  = "/categories"
	CommandAddCategory = "/addcategory"
	CommandDelCategory = "/delcategory"
)
