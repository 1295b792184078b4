package server

import (
	"net/http"
	"strings"

	"github.com/jacksonlee411/tenant-service/modules/tenant/domain/types"
	"golang.org/x/text/language"
)

// requestLanguage picks the content language: the lang query parameter, then
// the best Accept-Language match, then the default language.
func requestLanguage(r *http.Request) string {
	if lang := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("lang"))); isTwoLetter(lang) {
		return lang
	}
	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err == nil {
		for _, tag := range tags {
			base, conf := tag.Base()
			if conf == language.No {
				continue
			}
			if s := base.String(); isTwoLetter(s) {
				return s
			}
		}
	}
	return types.DefaultLanguage
}

func isTwoLetter(s string) bool {
	return len(s) == 2 && s[0] >= 'a' && s[0] <= 'z' && s[1] >= 'a' && s[1] <= 'z'
}
