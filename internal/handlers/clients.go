package handlers

import (
	"net/http"
	"strings"

	"github.com/wellywell/laundry/internal/types"
)

func (h *HandlerSet) HandleListClients(w http.ResponseWriter, req *http.Request) {
	page, perPage, err := pagination(req)
	if err != nil {
		handleError(w, err)
		return
	}
	q := strings.TrimSpace(req.URL.Query().Get("q"))

	result, err := h.database.ListClients(req.Context(), q, page, perPage)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *HandlerSet) HandleGetClient(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req, "clientID")
	if !ok {
		http.Error(w, "Invalid client id", http.StatusBadRequest)
		return
	}
	client, err := h.database.GetClient(req.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

func (h *HandlerSet) HandleCreateClient(w http.ResponseWriter, req *http.Request) {
	userID, ok := h.handleAuthorizeUser(w, req)
	if !ok {
		return
	}
	var data types.Client
	if err := decodeBody(req, &data); err != nil {
		handleError(w, err)
		return
	}
	data.Name = strings.TrimSpace(data.Name)
	if data.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	client, err := h.database.CreateClient(req.Context(), data, userID)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, client)
}

func (h *HandlerSet) HandleUpdateClient(w http.ResponseWriter, req *http.Request) {
	userID, ok := h.handleAuthorizeUser(w, req)
	if !ok {
		return
	}
	id, ok := pathID(req, "clientID")
	if !ok {
		http.Error(w, "Invalid client id", http.StatusBadRequest)
		return
	}
	var patch types.ClientPatch
	if err := decodeBody(req, &patch); err != nil {
		handleError(w, err)
		return
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		http.Error(w, "name cannot be empty", http.StatusBadRequest)
		return
	}

	client, err := h.database.UpdateClient(req.Context(), id, patch, userID)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

func (h *HandlerSet) HandleDeleteClient(w http.ResponseWriter, req *http.Request) {
	userID, ok := h.handleAuthorizeUser(w, req)
	if !ok {
		return
	}
	id, ok := pathID(req, "clientID")
	if !ok {
		http.Error(w, "Invalid client id", http.StatusBadRequest)
		return
	}
	if err := h.database.DeleteClient(req.Context(), id, userID); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HandlerSet) HandleListAddresses(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req, "clientID")
	if !ok {
		http.Error(w, "Invalid client id", http.StatusBadRequest)
		return
	}
	addresses, err := h.database.ListAddresses(req.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, addresses)
}

func (h *HandlerSet) HandleCreateAddress(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req, "clientID")
	if !ok {
		http.Error(w, "Invalid client id", http.StatusBadRequest)
		return
	}
	var data types.Address
	if err := decodeBody(req, &data); err != nil {
		handleError(w, err)
		return
	}
	data.ClientID = id
	data.AddressText = strings.TrimSpace(data.AddressText)
	if data.AddressText == "" {
		http.Error(w, "address_text is required", http.StatusBadRequest)
		return
	}

	address, err := h.database.CreateAddress(req.Context(), data)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, address)
}

func (h *HandlerSet) HandleDeleteAddress(w http.ResponseWriter, req *http.Request) {
	clientID, ok := pathID(req, "clientID")
	if !ok {
		http.Error(w, "Invalid client id", http.StatusBadRequest)
		return
	}
	addressID, ok := pathID(req, "addressID")
	if !ok {
		http.Error(w, "Invalid address id", http.StatusBadRequest)
		return
	}
	if err := h.database.DeleteAddress(req.Context(), clientID, addressID); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HandlerSet) HandleGetAddress(w http.ResponseWriter, req *http.Request) {
	clientID, ok := pathID(req, "clientID")
	if !ok {
		http.Error(w, "Invalid client id", http.StatusBadRequest)
		return
	}
	addressID, ok := pathID(req, "addressID")
	if !ok {
		http.Error(w, "Invalid address id", http.StatusBadRequest)
		return
	}
	address, err := h.database.GetAddress(req.Context(), clientID, addressID)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, address)
}

func (h *HandlerSet) HandleUpdateAddress(w http.ResponseWriter, req *http.Request) {
	clientID, ok := pathID(req, "clientID")
	if !ok {
		http.Error(w, "Invalid client id", http.StatusBadRequest)
		return
	}
	addressID, ok := pathID(req, "addressID")
	if !ok {
		http.Error(w, "Invalid address id", http.StatusBadRequest)
		return
	}
	var patch types.AddressPatch
	if err := decodeBody(req, &patch); err != nil {
		handleError(w, err)
		return
	}
	if patch.AddressText != nil && strings.TrimSpace(*patch.AddressText) == "" {
		http.Error(w, "address_text cannot be empty", http.StatusBadRequest)
		return
	}

	address, err := h.database.UpdateAddress(req.Context(), clientID, addressID, patch)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, address)
}

func (h *HandlerSet) HandleListPhones(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req, "clientID")
	if !ok {
		http.Error(w, "Invalid client id", http.StatusBadRequest)
		return
	}
	phones, err := h.database.ListPhones(req.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, phones)
}

func (h *HandlerSet) HandleGetPhone(w http.ResponseWriter, req *http.Request) {
	clientID, ok := pathID(req, "clientID")
	if !ok {
		http.Error(w, "Invalid client id", http.StatusBadRequest)
		return
	}
	phoneID, ok := pathID(req, "phoneID")
	if !ok {
		http.Error(w, "Invalid phone id", http.StatusBadRequest)
		return
	}
	phone, err := h.database.GetPhone(req.Context(), clientID, phoneID)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, phone)
}

func (h *HandlerSet) HandleCreatePhone(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req, "clientID")
	if !ok {
		http.Error(w, "Invalid client id", http.StatusBadRequest)
		return
	}
	var data types.Phone
	if err := decodeBody(req, &data); err != nil {
		handleError(w, err)
		return
	}
	data.ClientID = id
	data.PhoneNumber = strings.TrimSpace(data.PhoneNumber)
	if data.PhoneNumber == "" {
		http.Error(w, "phone_number is required", http.StatusBadRequest)
		return
	}

	phone, err := h.database.CreatePhone(req.Context(), data)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, phone)
}

func (h *HandlerSet) HandleUpdatePhone(w http.ResponseWriter, req *http.Request) {
	clientID, ok := pathID(req, "clientID")
	if !ok {
		http.Error(w, "Invalid client id", http.StatusBadRequest)
		return
	}
	phoneID, ok := pathID(req, "phoneID")
	if !ok {
		http.Error(w, "Invalid phone id", http.StatusBadRequest)
		return
	}
	var patch types.PhonePatch
	if err := decodeBody(req, &patch); err != nil {
		handleError(w, err)
		return
	}
	if patch.PhoneNumber != nil && strings.TrimSpace(*patch.PhoneNumber) == "" {
		http.Error(w, "phone_number cannot be empty", http.StatusBadRequest)
		return
	}

	phone, err := h.database.UpdatePhone(req.Context(), clientID, phoneID, patch)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, phone)
}

func (h *HandlerSet) HandleDeletePhone(w http.ResponseWriter, req *http.Request) {
	clientID, ok := pathID(req, "clientID")
	if !ok {
		http.Error(w, "Invalid client id", http.StatusBadRequest)
		return
	}
	phoneID, ok := pathID(req, "phoneID")
	if !ok {
		http.Error(w, "Invalid phone id", http.StatusBadRequest)
		return
	}
	if err := h.database.DeletePhone(req.Context(), clientID, phoneID); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
