package ai

import (
	"errors"
)

// プロバイダー共通のエラー分類です。各プロバイダーは SDK のエラーをこれらでラップして返します。
var (
	ErrBillingLimit  = errors.New("billing limit reached")
	ErrRateLimited   = errors.New("rate limit exceeded")
	ErrUnauthorized  = errors.New("provider authentication failed")
	ErrEmptyResponse = errors.New("empty response from provider")
	ErrNotConfigured = errors.New("API key not configured")
)

const (
	billingMessage      = "OpenAI billing limit reached. Please add credits at https://platform.openai.com/account/billing"
	rateLimitMessage    = "The AI provider is receiving too many requests. Please wait a moment and try again."
	unauthorizedMessage = "The AI provider rejected the API key. Please check the server configuration."
)

// IsBillingLimit は課金上限エラーかどうかを返します。
func IsBillingLimit(err error) bool {
	return errors.Is(err, ErrBillingLimit)
}

// UserMessage はエラーの分類に応じた利用者向けメッセージを返します。
// 分類できないエラーは err.Error() をそのまま返します。
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrBillingLimit):
		return billingMessage
	case errors.Is(err, ErrRateLimited):
		return rateLimitMessage
	case errors.Is(err, ErrUnauthorized):
		return unauthorizedMessage
	default:
		return err.Error()
	}
}
