package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/wellywell/laundry/internal/types"
)

func (h *HandlerSet) HandleListPaymentTypes(w http.ResponseWriter, req *http.Request) {
	result, err := h.database.ListPaymentTypes(req.Context())
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *HandlerSet) HandleCreatePaymentType(w http.ResponseWriter, req *http.Request) {
	var data struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decodeBody(req, &data); err != nil {
		handleError(w, err)
		return
	}
	data.Name = strings.TrimSpace(data.Name)
	if data.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	pt, err := h.database.CreatePaymentType(req.Context(), data.Name, data.Description)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pt)
}

func (h *HandlerSet) HandleListTransactions(w http.ResponseWriter, req *http.Request) {
	page, perPage, err := pagination(req)
	if err != nil {
		handleError(w, err)
		return
	}
	filter := types.TransactionFilter{Page: page, PerPage: perPage}

	if raw := req.URL.Query().Get("user_id"); raw != "" {
		filter.UserID, err = strconv.Atoi(raw)
		if err != nil || filter.UserID <= 0 {
			http.Error(w, "Invalid user_id", http.StatusBadRequest)
			return
		}
	}
	if raw := req.URL.Query().Get("transaction_type"); raw != "" {
		filter.TransactionType = types.TransactionType(strings.ToUpper(raw))
		if !filter.TransactionType.Valid() {
			http.Error(w, "transaction_type must be IN or OUT", http.StatusBadRequest)
			return
		}
	}

	result, err := h.database.ListTransactions(req.Context(), filter)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *HandlerSet) HandleGetTransaction(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req, "transactionID")
	if !ok {
		http.Error(w, "Invalid transaction id", http.StatusBadRequest)
		return
	}
	t, err := h.database.GetTransaction(req.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *HandlerSet) HandleCreateTransaction(w http.ResponseWriter, req *http.Request) {
	userID, ok := h.handleAuthorizeUser(w, req)
	if !ok {
		return
	}
	var data types.Transaction
	if err := decodeBody(req, &data); err != nil {
		handleError(w, err)
		return
	}
	data.TransactionType = types.TransactionType(strings.ToUpper(string(data.TransactionType)))
	if !data.TransactionType.Valid() {
		http.Error(w, "transaction_type must be IN or OUT", http.StatusBadRequest)
		return
	}
	if !data.Amount.GreaterThan(decimal.Zero) {
		http.Error(w, "amount must be positive", http.StatusBadRequest)
		return
	}
	if data.PaymentTypeID <= 0 {
		http.Error(w, "payment_type_id is required", http.StatusBadRequest)
		return
	}
	if data.UserID == 0 {
		data.UserID = userID
	}

	t, err := h.database.CreateTransaction(req.Context(), data)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *HandlerSet) HandleListCategories(w http.ResponseWriter, req *http.Request) {
	result, err := h.database.ListCategories(req.Context())
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func decodeCategoryName(req *http.Request) (string, error) {
	var data struct {
		CategoryName string `json:"category_name"`
	}
	if err := decodeBody(req, &data); err != nil {
		return "", err
	}
	return strings.TrimSpace(data.CategoryName), nil
}

func (h *HandlerSet) HandleCreateCategory(w http.ResponseWriter, req *http.Request) {
	name, err := decodeCategoryName(req)
	if err != nil {
		handleError(w, err)
		return
	}
	if name == "" {
		http.Error(w, "category_name is required", http.StatusBadRequest)
		return
	}

	category, err := h.database.CreateCategory(req.Context(), name)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (h *HandlerSet) HandleUpdateCategory(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req, "categoryID")
	if !ok {
		http.Error(w, "Invalid category id", http.StatusBadRequest)
		return
	}
	name, err := decodeCategoryName(req)
	if err != nil {
		handleError(w, err)
		return
	}
	if name == "" {
		http.Error(w, "category_name is required", http.StatusBadRequest)
		return
	}

	category, err := h.database.UpdateCategory(req.Context(), id, name)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (h *HandlerSet) HandleDeleteCategory(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req, "categoryID")
	if !ok {
		http.Error(w, "Invalid category id", http.StatusBadRequest)
		return
	}
	if err := h.database.DeleteCategory(req.Context(), id); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
