// internal/view/uahelpers.go
//
// User-Agent template helpers keyed off *requestinfo.RequestInfo.  Every
// helper tolerates a nil pointer so pages render even when the request
// info middleware is not mounted (tests, fragments).
package view

import (
	"html/template"

	"github.com/yanizio/hostcat/internal/requestinfo"
)

func uaFuncMap() template.FuncMap {
	return template.FuncMap{
		"browser": func(i *requestinfo.RequestInfo) string {
			if i == nil {
				return ""
			}
			return i.UA.Browser
		},
		"device": func(i *requestinfo.RequestInfo) string {
			if i == nil {
				return ""
			}
			return i.UA.Device
		},
		"isBot": func(i *requestinfo.RequestInfo) bool { return i != nil && i.UA.IsBot },
	}
}
