package router

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/wellywell/laundry/internal/auth"
	"github.com/wellywell/laundry/internal/compress"
	"github.com/wellywell/laundry/internal/config"
	"github.com/wellywell/laundry/internal/handlers"
)

const (
	compressLevel = 5
)

type Middleware interface {
	Handle(h http.Handler) http.Handler
}

// LiveHandlers are the long-lived queue transports. They authenticate on
// their own and are served outside the compressing group.
type LiveHandlers struct {
	WebSocket http.Handler
	Stream    http.Handler
}

type Router struct {
	server *http.Server
	router *chi.Mux
}

func NewRouter(conf *config.ServerConfig, h *handlers.HandlerSet, live LiveHandlers, middlewares ...Middleware) *Router {

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	for _, m := range middlewares {
		r.Use(m.Handle)
	}

	if live.WebSocket != nil {
		r.Get("/ws/laundry/queue", live.WebSocket.ServeHTTP)
	}
	if live.Stream != nil {
		r.Get("/laundry_services/queue/stream", live.Stream.ServeHTTP)
	}

	authMiddleware := &auth.AuthenticateMiddleware{Secret: conf.Secret}
	queueAuth := &auth.AuthenticateMiddleware{Secret: conf.Secret, Reject: handlers.HandleQueueUnauthorized}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Compress(compressLevel))
		r.Use(compress.RequestUngzipper{}.Handle)

		r.Get("/health", h.HandleHealth)
		r.Post("/auth/login", h.HandleLogin)
		r.Post("/auth/refresh", h.HandleRefresh)
		r.Post("/auth/logout", h.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(queueAuth.Handle)
			r.Get("/laundry_services/queue", h.HandleGetQueue)
			r.Patch("/laundry_services/pending/reorder", h.HandleReorderPending)
		})

		r.Group(func(r chi.Router) {

			r.Use(authMiddleware.Handle)
			r.Get("/auth/me", h.HandleMe)

			r.Route("/roles", func(r chi.Router) {
				r.Get("/", h.HandleListRoles)
				r.Post("/", h.HandleCreateRole)
				r.Patch("/{roleID}", h.HandleUpdateRole)
				r.Delete("/{roleID}", h.HandleDeleteRole)
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.HandleListUsers)
				r.Post("/", h.HandleCreateUser)
				r.Get("/profile", h.HandleProfile)
				r.Get("/{userID}", h.HandleGetUser)
				r.Patch("/{userID}", h.HandleUpdateUser)
				r.Delete("/{userID}", h.HandleDeleteUser)
				r.Put("/{userID}/change-password", h.HandleChangePassword)
				r.Put("/{userID}/force-password", h.HandleForcePassword)
			})

			r.Route("/clients", func(r chi.Router) {
				r.Get("/", h.HandleListClients)
				r.Post("/", h.HandleCreateClient)
				r.Get("/{clientID}", h.HandleGetClient)
				r.Patch("/{clientID}", h.HandleUpdateClient)
				r.Delete("/{clientID}", h.HandleDeleteClient)
				r.Get("/{clientID}/addresses", h.HandleListAddresses)
				r.Post("/{clientID}/addresses", h.HandleCreateAddress)
				r.Get("/{clientID}/addresses/{addressID}", h.HandleGetAddress)
				r.Patch("/{clientID}/addresses/{addressID}", h.HandleUpdateAddress)
				r.Put("/{clientID}/addresses/{addressID}", h.HandleUpdateAddress)
				r.Delete("/{clientID}/addresses/{addressID}", h.HandleDeleteAddress)
				r.Get("/{clientID}/phones", h.HandleListPhones)
				r.Post("/{clientID}/phones", h.HandleCreatePhone)
				r.Get("/{clientID}/phones/{phoneID}", h.HandleGetPhone)
				r.Patch("/{clientID}/phones/{phoneID}", h.HandleUpdatePhone)
				r.Put("/{clientID}/phones/{phoneID}", h.HandleUpdatePhone)
				r.Delete("/{clientID}/phones/{phoneID}", h.HandleDeletePhone)
			})

			r.Get("/payment_types", h.HandleListPaymentTypes)
			r.Post("/payment_types", h.HandleCreatePaymentType)

			r.Route("/transaction-categories", func(r chi.Router) {
				r.Get("/", h.HandleListCategories)
				r.Post("/", h.HandleCreateCategory)
				r.Patch("/{categoryID}", h.HandleUpdateCategory)
				r.Put("/{categoryID}", h.HandleUpdateCategory)
				r.Delete("/{categoryID}", h.HandleDeleteCategory)
			})

			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", h.HandleListTransactions)
				r.Post("/", h.HandleCreateTransaction)
				r.Get("/{transactionID}", h.HandleGetTransaction)
			})

			r.Route("/work_sessions", func(r chi.Router) {
				r.Get("/", h.HandleListSessions)
				r.Post("/start", h.HandleStartSession)
				r.Post("/end", h.HandleEndSession)
				r.Post("/force_end", h.HandleForceEndSession)
			})

			r.Route("/processing_steps", func(r chi.Router) {
				r.Get("/", h.HandleListSteps)
				r.Post("/", h.HandleCreateStep)
				r.Get("/{stepID}", h.HandleGetStep)
				r.Patch("/{stepID}", h.HandleUpdateStep)
				r.Put("/{stepID}", h.HandleUpdateStep)
				r.Delete("/{stepID}", h.HandleDeleteStep)
				r.Patch("/{stepID}/complete", h.HandleCompleteStep)
			})

			r.Route("/laundry_deliveries", func(r chi.Router) {
				r.Get("/", h.HandleListDeliveries)
				r.Post("/", h.HandleCreateDelivery)
				r.Get("/{deliveryID}", h.HandleGetDelivery)
				r.Patch("/{deliveryID}", h.HandleUpdateDelivery)
				r.Put("/{deliveryID}", h.HandleUpdateDelivery)
				r.Delete("/{deliveryID}", h.HandleDeleteDelivery)
				r.Patch("/{deliveryID}/update_status", h.HandleUpdateDeliveryStatus)
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", h.HandleListTasks)
				r.Post("/", h.HandleCreateTask)
				r.Get("/{taskID}", h.HandleGetTask)
				r.Patch("/{taskID}", h.HandleUpdateTask)
				r.Put("/{taskID}", h.HandleUpdateTask)
				r.Delete("/{taskID}", h.HandleDeleteTask)
				r.Post("/{taskID}/views", h.HandleRecordTaskView)
			})

			r.Route("/menus", func(r chi.Router) {
				r.Get("/", h.HandleListUserMenus)
				r.Get("/all", h.HandleListMenus)
				r.Post("/", h.HandleCreateMenu)
				r.Patch("/{menuID}", h.HandleUpdateMenu)
				r.Put("/{menuID}", h.HandleUpdateMenu)
				r.Delete("/{menuID}", h.HandleDeleteMenu)
				r.Post("/{menuID}/roles", h.HandleAssignMenuRole)
				r.Delete("/{menuID}/roles/{roleID}", h.HandleRemoveMenuRole)
			})

			r.Route("/laundry_services", func(r chi.Router) {
				r.Get("/", h.HandleListOrders)
				r.Post("/", h.HandleCreateOrder)
				r.Get("/compact", h.HandleListCompactOrders)
				r.Delete("/notes/{noteID}", h.HandleDeleteNote)
				r.Get("/{orderID}", h.HandleGetOrder)
				r.Patch("/{orderID}", h.HandleUpdateOrder)
				r.Delete("/{orderID}", h.HandleDeleteOrder)
				r.Patch("/{orderID}/update_status", h.HandleUpdateOrderStatus)
				r.Get("/{orderID}/activity", h.HandleListActivity)
				r.Get("/{orderID}/notes", h.HandleListNotes)
				r.Post("/{orderID}/notes", h.HandleCreateNote)
			})
		})
	})

	return &Router{router: r, server: &http.Server{Addr: conf.RunAddress, Handler: r}}
}

func (r *Router) Handler() http.Handler {
	return r.router
}

func (r *Router) ListenAndServe() error {
	err := r.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (r *Router) Shutdown(ctx context.Context) error {
	return r.server.Shutdown(ctx)
}
