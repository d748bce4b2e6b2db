package models

type CommandType string

const (
	CommandStart           CommandType = "/start"
	CommandHelp            CommandType = "/help"
	CommandStatus          CommandType = "/status"
	CommandStats           CommandType = "/stats"
	CommandFunnels         CommandType = "/funnels"
	CommandSetFunnel       CommandType = "/set_funnel"
	CommandResetFunnels    CommandType = "/reset_funnels"
	CommandSetWorkChat     CommandType = "/set_work_chat"
	CommandPending         CommandType = "/pending"
	CommandClearPending    CommandType = "/clear_pending"
	CommandClearChat       CommandType = "/clear_chat"
	CommandResetAll        CommandType = "/reset_all"
	CommandForceCheck      CommandType = "/force_check"
	CommandAddException    CommandType = "/add_exception"
	CommandRemoveException CommandType = "/remove_exception"
	CommandListExceptions  CommandType = "/list_exceptions"
	CommandClearExceptions CommandType = "/clear_exceptions"
	CommandManagers        CommandType = "/managers"
	CommandUnknown         CommandType = "unknown"
)

type Command struct {
	Type     CommandType
	ChatID   int64
	UserID   int64
	Text     string
	Args     []string
	Username string
}
