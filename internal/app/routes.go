package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// User management
	r.HandleFunc("/api/user/current", deps.UserHandler.CurrentUser).Methods("GET")
	r.HandleFunc("/api/user/current", deps.UserHandler.UpdateUser).Methods("PUT")
	r.HandleFunc("/api/user", deps.UserHandler.CreateUser).Methods("POST")
	r.HandleFunc("/api/user", deps.UserHandler.GetAvailableUsers).Methods("GET")
	r.HandleFunc("/api/user/{userUid}", deps.UserHandler.DeleteUser).Methods("DELETE")

	// Transactions
	r.HandleFunc("/api/transaction", deps.TransactionHandler.List).Methods("GET")
	r.HandleFunc("/api/transaction", deps.TransactionHandler.Create).Methods("POST")
	r.HandleFunc("/api/transaction/{transactionId}", deps.TransactionHandler.Get).Methods("GET")
	r.HandleFunc("/api/transaction/{transactionId}", deps.TransactionHandler.Delete).Methods("DELETE")

	// Recurring transactions, fixed paths first so they are not taken for an ID
	r.HandleFunc("/api/recurring", deps.RecurringHandler.List).Methods("GET")
	r.HandleFunc("/api/recurring", deps.RecurringHandler.Create).Methods("POST")
	r.HandleFunc("/api/recurring/due", deps.RecurringHandler.ListDue).Methods("GET")
	r.HandleFunc("/api/recurring/upcoming", deps.RecurringHandler.ListUpcoming).Methods("GET")
	r.HandleFunc("/api/recurring/summary", deps.RecurringHandler.Summary).Methods("GET")
	r.HandleFunc("/api/recurring/process-due", deps.RecurringHandler.ProcessAllDue).Methods("POST")
	r.HandleFunc("/api/recurring/process-selected", deps.RecurringHandler.ProcessSelected).Methods("POST")
	r.HandleFunc("/api/recurring/auto-run", deps.RecurringHandler.RunAutoProcessing).Methods("POST")
	r.HandleFunc("/api/recurring/settings", deps.SettingsHandler.GetSettings).Methods("GET")
	r.HandleFunc("/api/recurring/settings", deps.SettingsHandler.UpdateSettings).Methods("PUT")
	r.HandleFunc("/api/recurring/{recurringId}", deps.RecurringHandler.Get).Methods("GET")
	r.HandleFunc("/api/recurring/{recurringId}", deps.RecurringHandler.Update).Methods("PUT")
	r.HandleFunc("/api/recurring/{recurringId}", deps.RecurringHandler.Delete).Methods("DELETE")
	r.HandleFunc("/api/recurring/{recurringId}/process", deps.RecurringHandler.ProcessOne).Methods("POST")
	r.HandleFunc("/api/recurring/{recurringId}/undo", deps.RecurringHandler.Undo).Methods("POST")
	r.HandleFunc("/api/recurring/{recurringId}/history", deps.RecurringHandler.History).Methods("GET")

	// Notifications
	r.HandleFunc("/api/notification", deps.NotificationHandler.List).Methods("GET")
	r.HandleFunc("/api/notification/{notificationId}", deps.NotificationHandler.Dismiss).Methods("DELETE")
}
