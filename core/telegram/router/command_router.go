package router

import (
	tg "github.com/m3rciful/readerbot/core/telegram"
	"github.com/m3rciful/readerbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures CommandRoutes.
type CommandRouteOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes returns one route per registered command. Admin-only commands
// are guarded before the summary wrapper so rejections are logged too.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	admin := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		AdminID:  opts.AdminID,
		OnReject: opts.OnAdminReject,
	})

	cmds := reg.Commands()
	routes := make([]tg.Route, 0, len(cmds))
	for name, def := range cmds {
		h := def.Handler
		if def.AdminOnly {
			h = admin(h)
		}
		handlerName := normalizeHandlerName(name)
		routes = append(routes, tg.Route{
			Endpoint: name,
			Handler: func(c tele.Context) error {
				return handleWithSummary(c, handlerName, func() error { return h(c) })
			},
		})
	}
	return routes
}
