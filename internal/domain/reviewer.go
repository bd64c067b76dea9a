package domain

import "strings"

// AuthorizedUser 許可リストシートの1行
type AuthorizedUser struct {
	Name  string
	Email string
}

// Reviewer ログイン済みの利用者。メールアドレスは認証基盤で検証済み
type Reviewer struct {
	Name  string
	Email string
}

// DisplayName 「Last Updated By」に記録する名前
func (r Reviewer) DisplayName() string {
	if strings.TrimSpace(r.Name) != "" {
		return r.Name
	}
	return r.Email
}

// NormalizeEmail 大文字小文字と前後の空白を無視して比較するための正規化
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
