package service

import (
	"net/url"
	"strings"
)

// BuildImageURL склеивает базовый URL генератора картинок и экранированный промпт.
// Пустой промпт дает пустую строку.
func BuildImageURL(baseURL, prompt string) string {
	if prompt == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + "/" + url.PathEscape(prompt)
}
