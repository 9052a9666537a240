package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/paybackapp/payback/internal/auth"
	"github.com/paybackapp/payback/internal/importer"
	"github.com/paybackapp/payback/internal/invites"
	"github.com/paybackapp/payback/internal/ledger"
	"github.com/paybackapp/payback/internal/models"
)

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type authResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := a.auth.Register(r.Context(), req.Email, req.Name, req.Password)
	switch {
	case errors.Is(err, auth.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, auth.ErrEmailExists):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	token, err := a.tokens.Generate(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue session")
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Token: token, UserID: user.ID, Name: user.Name})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := a.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, auth.ErrInvalidCredentials.Error())
		return
	}

	token, err := a.tokens.Generate(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue session")
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, UserID: user.ID, Name: user.Name})
}

type importRequest struct {
	Text string `json:"text"`
}

type importResponse struct {
	Status      string              `json:"status"`
	Summary     *importer.Summary   `json:"summary,omitempty"`
	Description string              `json:"description,omitempty"`
	RowErrors   []string            `json:"row_errors,omitempty"`
	Message     string              `json:"message,omitempty"`
	Conflicts   []importer.Conflict `json:"conflicts,omitempty"`
}

func (a *API) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch result := a.imports.Import(r.Context(), req.Text).(type) {
	case importer.Success:
		writeJSON(w, http.StatusOK, importResponse{
			Status:      "success",
			Summary:     &result.Summary,
			Description: result.Summary.Description(),
		})
	case importer.PartialSuccess:
		writeJSON(w, http.StatusOK, importResponse{
			Status:      "partial_success",
			Summary:     &result.Summary,
			Description: result.Summary.Description(),
			RowErrors:   result.Errors,
		})
	case importer.IncompatibleFormat:
		writeJSON(w, http.StatusUnprocessableEntity, importResponse{
			Status:  "incompatible_format",
			Message: result.Message,
		})
	case importer.NeedsResolution:
		writeJSON(w, http.StatusConflict, importResponse{
			Status:    "needs_resolution",
			Conflicts: result.Conflicts,
		})
	}
}

type createGroupRequest struct {
	Name        string   `json:"name"`
	MemberNames []string `json:"member_names"`
}

func (a *API) handleListGroups(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"groups": a.store.Groups()})
}

func (a *API) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := decode(r, &req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "group name is required")
		return
	}

	group := a.store.AddGroup(req.Name, req.MemberNames)
	a.persist(r)
	writeJSON(w, http.StatusCreated, group)
}

type balancesResponse struct {
	Balances []ledger.MemberBalance `json:"balances"`
	Settle   []ledger.DebtEdge      `json:"settle"`
}

func (a *API) handleGroupBalances(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	group, ok := a.store.GroupByID(groupID)
	if !ok {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}

	balances := ledger.GroupBalances(&group, a.store.ExpensesForGroup(groupID))
	writeJSON(w, http.StatusOK, balancesResponse{
		Balances: balances,
		Settle:   ledger.SimplifyDebts(balances),
	})
}

type splitRequest struct {
	MemberID string          `json:"member_id"`
	Amount   decimal.Decimal `json:"amount"`
	Settled  bool            `json:"settled"`
}

type createExpenseRequest struct {
	GroupID     string          `json:"group_id"`
	Description string          `json:"description"`
	Date        string          `json:"date"` // RFC3339, defaults to now
	Amount      decimal.Decimal `json:"amount"`
	PayerID     string          `json:"payer_id"`
	Splits      []splitRequest  `json:"splits"`
}

func (a *API) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, ok := a.store.GroupByID(req.GroupID); !ok {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}
	if req.PayerID == "" {
		writeError(w, http.StatusBadRequest, "payer_id is required")
		return
	}

	date := time.Now().UTC()
	if req.Date != "" {
		parsed, err := time.Parse(time.RFC3339, req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be RFC 3339")
			return
		}
		date = parsed
	}

	expense := models.Expense{
		ID:          uuid.New().String(),
		GroupID:     req.GroupID,
		Description: req.Description,
		Date:        date,
		Amount:      req.Amount,
		PayerID:     req.PayerID,
	}
	for _, s := range req.Splits {
		expense.InvolvedMemberIDs = append(expense.InvolvedMemberIDs, s.MemberID)
		expense.Splits = append(expense.Splits, models.ExpenseSplit{
			ID:        uuid.New().String(),
			MemberID:  s.MemberID,
			Amount:    s.Amount,
			IsSettled: s.Settled,
		})
	}

	a.store.AddExpense(expense)
	a.persist(r)
	writeJSON(w, http.StatusCreated, expense)
}

type balanceResponse struct {
	MemberID string          `json:"member_id"`
	Balance  decimal.Decimal `json:"balance"`
}

func (a *API) handleOverallBalance(w http.ResponseWriter, r *http.Request) {
	memberID := r.URL.Query().Get("member_id")
	if memberID == "" {
		memberID = UserID(r.Context())
	}

	balance := ledger.OverallNetBalance(memberID, a.store.Groups(), a.store.ExpensesForGroup)
	writeJSON(w, http.StatusOK, balanceResponse{MemberID: memberID, Balance: balance})
}

func (a *API) handleListFriends(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"friends": a.store.Friends()})
}

type syncFriendsRequest struct {
	Friends []models.AccountFriend `json:"friends"`
}

type syncFriendsResponse struct {
	Friends []models.AccountFriend `json:"friends"`
	Ran     bool                   `json:"ran"`
}

func (a *API) handleSyncFriends(w http.ResponseWriter, r *http.Request) {
	var req syncFriendsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	merged, ran := a.friendSvc.SyncFriends(r.Context(), req.Friends)
	writeJSON(w, http.StatusOK, syncFriendsResponse{Friends: merged, Ran: ran})
}

type confirmLinkRequest struct {
	MemberID     string `json:"member_id"`
	AccountID    string `json:"account_id"`
	AccountEmail string `json:"account_email"`
}

func (a *API) handleConfirmLink(w http.ResponseWriter, r *http.Request) {
	var req confirmLinkRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	linked := a.friendSvc.ConfirmLink(req.MemberID, req.AccountID, req.AccountEmail)
	writeJSON(w, http.StatusOK, map[string]bool{"linked": linked})
}

func (a *API) handleLinkFailures(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"failures": a.friendSvc.PendingLinkFailures(),
	})
}

type createInviteRequest struct {
	GroupID string `json:"group_id"`
}

func (a *API) handleCreateInvite(w http.ResponseWriter, r *http.Request) {
	var req createInviteRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, ok := a.store.GroupByID(req.GroupID); !ok {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}

	token, err := a.invites.Create(req.GroupID, UserID(r.Context()), Email(r.Context()), a.inviteTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create invite")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"token": token})
}

type validateInviteRequest struct {
	Token string `json:"token"`
}

func (a *API) handleValidateInvite(w http.ResponseWriter, r *http.Request) {
	var req validateInviteRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	invite, err := a.invites.Validate(req.Token)
	switch {
	case errors.Is(err, invites.ErrInviteExpired):
		writeError(w, http.StatusGone, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusUnprocessableEntity, invites.ErrInviteMalformed.Error())
		return
	}
	writeJSON(w, http.StatusOK, invite)
}

// persist saves a snapshot after a locally-originated mutation. Loss of a
// save costs durability, not correctness, so failures only log.
func (a *API) persist(r *http.Request) {
	if a.persister == nil {
		return
	}
	_ = a.persister.Save(r.Context(), a.store.Snapshot())
}
