package messages

import "fmt"

// PrivateHelp is the /help text for private chats.
const PrivateHelp = "🤖 Standup Bot Private Chat Commands\n\n" +
	"Setup:\n" +
	"• /showGroups - Show list of available group chats\n" +
	"• /setGC <number> - Set which group chat your updates should go to\n\n" +
	"Creating Updates:\n" +
	"• /start - Begin creating your standup update\n" +
	"• /today - Finish yesterday's tasks and move to today's\n" +
	"• /done - Finish and send your update to the group\n" +
	"• /stop - Cancel update preparation\n\n" +
	"How it works:\n" +
	"1. Use /showGroups to see available groups\n" +
	"2. Use /setGC with the group number to select your target group\n" +
	"3. Use /start to begin your update\n" +
	"4. Add your yesterday's accomplishments one by one\n" +
	"5. Use /today when done with yesterday's tasks\n" +
	"6. Add your today's priorities one by one\n" +
	"7. Use /done to finish and send your update\n\n" +
	"For each task you'll enter what you did (or will do) and why.\n" +
	"The bot numbers and formats your tasks."

// GroupHelp is the /help text for groups; welcome selects the variant sent when the bot joins.
func GroupHelp(botUserName string, welcome bool) string {
	head := "🤖 Standup Bot Group Commands\n\n"
	if welcome {
		head = "👋 Thanks for adding me to the group!\n\nI'll help you manage daily standups.\n\n"
	}
	text := head +
		"⚠️ IMPORTANT:\nMake the bot ADMIN to ensure all features work.\n\n" +
		"Update Commands:\n" +
		"• /myUpdate or /up <text> - Share your standup update\n" +
		"• /showStandup - Show today's standup updates\n" +
		"• /missing - Show who hasn't submitted updates\n\n" +
		"Reminder Settings:\n" +
		"• /setReminder - Set daily standup reminder time\n" +
		"• /showReminder - Show reminder settings\n" +
		"• /toggleReminder - Toggle reminders on/off\n\n" +
		"Export Settings (admin only):\n" +
		"• /setSpreadsheet <id> - Set the Google Spreadsheet ID\n" +
		"• /showSpreadsheet - Show the configured spreadsheet\n" +
		"• /removeSpreadsheet - Stop exporting updates\n\n" +
		"Member Management (admin only):\n" +
		"• /manageMembers - Show all members and categories\n" +
		"• /addMember [category] [username] - Add member to category\n" +
		"• /removeMember [username] - Remove member from all categories\n\n" +
		"Creating Updates:\n" +
		fmt.Sprintf("Chat with @%s privately and it will guide you through a well-formatted update.\n", botUserName) +
		"You can still use /up with your text. Example:\n" +
		"/up Yesterday: <your update>\nToday: <your update>\nBlockers: None\n\n" +
		"Notes:\n" +
		"• The latest update overwrites previous updates\n" +
		"• Reminders are converted to UTC internally\n" +
		"• Member categories help organize standup reports"
	if welcome {
		text += "\n\nType /help anytime to see this message again."
	}
	return text
}

// UpdateUsage is sent when /myUpdate has no text.
const UpdateUsage = "Please provide your update after the command. For example:\n" +
	"/myUpdate Yesterday: Worked on X\nToday: Work on Y\nBlockers: None"

// ReminderSetupPrompt asks for the two-line /setReminder answer.
const ReminderSetupPrompt = "Please provide current time and desired reminder time in this format:\n\n" +
	"Now: 2:55 pm\nSet: 10:25 am\n\n(Then press Enter)"
