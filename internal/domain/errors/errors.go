package errors

import (
	"fmt"
)

type ErrUnknownFunnel struct {
	Tier int
}

func (e *ErrUnknownFunnel) Error() string {
	return fmt.Sprintf("воронка с номером %d не настроена", e.Tier)
}

func (e *ErrUnknownFunnel) Is(target error) bool {
	_, ok := target.(*ErrUnknownFunnel)
	return ok
}

type ErrInvalidInterval struct {
	Minutes int
}

func (e *ErrInvalidInterval) Error() string {
	return fmt.Sprintf("интервал воронки должен быть положительным числом минут, получено: %d", e.Minutes)
}

func (e *ErrInvalidInterval) Is(target error) bool {
	_, ok := target.(*ErrInvalidInterval)
	return ok
}

type ErrWorkChatNotSet struct{}

func (e *ErrWorkChatNotSet) Error() string {
	return "рабочий чат для уведомлений не установлен"
}

func (e *ErrWorkChatNotSet) Is(target error) bool {
	_, ok := target.(*ErrWorkChatNotSet)
	return ok
}

type ErrMessageNotFound struct {
	Key string
}

func (e *ErrMessageNotFound) Error() string {
	return "непрочитанное сообщение не найдено: " + e.Key
}

func (e *ErrMessageNotFound) Is(target error) bool {
	_, ok := target.(*ErrMessageNotFound)
	return ok
}

type ErrUnknownCommand struct {
	Command string
}

func (e *ErrUnknownCommand) Error() string {
	return "неизвестная команда: " + e.Command
}

func (e *ErrUnknownCommand) Is(target error) bool {
	_, ok := target.(*ErrUnknownCommand)
	return ok
}

type ErrAccessDenied struct {
	UserID int64
}

func (e *ErrAccessDenied) Error() string {
	return fmt.Sprintf("у пользователя %d нет прав для выполнения этой команды", e.UserID)
}

func (e *ErrAccessDenied) Is(target error) bool {
	_, ok := target.(*ErrAccessDenied)
	return ok
}

type ErrInvalidArgument struct {
	Message string
}

func (e *ErrInvalidArgument) Error() string {
	return fmt.Sprintf("некорректный аргумент: %s", e.Message)
}

type ErrUnknownStorageType struct {
	AccessType string
}

func (e *ErrUnknownStorageType) Error() string {
	return fmt.Sprintf("неизвестный тип хранилища состояния: %s", e.AccessType)
}

type ErrStateNotFound struct {
	Key string
}

func (e *ErrStateNotFound) Error() string {
	return "состояние не найдено: " + e.Key
}

func (e *ErrStateNotFound) Is(target error) bool {
	_, ok := target.(*ErrStateNotFound)
	return ok
}

type ErrSendReport struct {
	ChatID int64
	Cause  error
}

func (e *ErrSendReport) Error() string {
	return fmt.Sprintf("ошибка при отправке отчёта в чат %d: %v", e.ChatID, e.Cause)
}

func (e *ErrSendReport) Unwrap() error {
	return e.Cause
}

type ErrDeleteReport struct {
	ChatID    int64
	MessageID int64
	Cause     error
}

func (e *ErrDeleteReport) Error() string {
	return fmt.Sprintf("ошибка при удалении отчёта %d из чата %d: %v", e.MessageID, e.ChatID, e.Cause)
}

func (e *ErrDeleteReport) Unwrap() error {
	return e.Cause
}

type ErrBuildSQLQuery struct {
	Operation string
	Cause     error
}

func (e *ErrBuildSQLQuery) Error() string {
	return fmt.Sprintf("ошибка при построении SQL запроса для %s: %v", e.Operation, e.Cause)
}

func (e *ErrBuildSQLQuery) Unwrap() error {
	return e.Cause
}

type ErrSQLExecution struct {
	Operation string
	Cause     error
}

func (e *ErrSQLExecution) Error() string {
	return fmt.Sprintf("ошибка при выполнении SQL запроса для %s: %v", e.Operation, e.Cause)
}

func (e *ErrSQLExecution) Unwrap() error {
	return e.Cause
}

type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error: %d", e.StatusCode)
}
