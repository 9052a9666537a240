package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/paybackapp/payback/internal/models"
)

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)

// Snapshot is a point-in-time copy of the whole store, used to move state
// in and out of persistence.
type Snapshot struct {
	Groups   []models.SpendingGroup
	Expenses []models.Expense
	Friends  []models.AccountFriend
}

// MemoryStore is the canonical Store implementation: mutex-guarded,
// insertion-ordered slices with ID indexes for dedup.
type MemoryStore struct {
	mu sync.RWMutex

	groups   []models.SpendingGroup
	expenses []models.Expense
	friends  []models.AccountFriend

	groupIndex   map[string]int
	expenseIndex map[string]int
	friendIndex  map[string]int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		groupIndex:   make(map[string]int),
		expenseIndex: make(map[string]int),
		friendIndex:  make(map[string]int),
	}
}

// NewMemoryStoreFromSnapshot seeds a store from persisted state.
func NewMemoryStoreFromSnapshot(snap Snapshot) *MemoryStore {
	s := NewMemoryStore()
	for _, g := range snap.Groups {
		s.AddExistingGroup(g)
	}
	for _, e := range snap.Expenses {
		s.AddExpense(e)
	}
	for _, f := range snap.Friends {
		s.AddImportedFriend(f)
	}
	return s
}

// Snapshot copies the current state for persistence.
func (s *MemoryStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Groups:   append([]models.SpendingGroup(nil), s.groups...),
		Expenses: append([]models.Expense(nil), s.expenses...),
		Friends:  append([]models.AccountFriend(nil), s.friends...),
	}
}

// Groups returns every group in insertion order.
func (s *MemoryStore) Groups() []models.SpendingGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.SpendingGroup(nil), s.groups...)
}

// GroupByID looks up one group by ID.
func (s *MemoryStore) GroupByID(id string) (models.SpendingGroup, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i, ok := s.groupIndex[id]; ok {
		return s.groups[i], true
	}
	return models.SpendingGroup{}, false
}

// Expenses returns every expense in insertion order.
func (s *MemoryStore) Expenses() []models.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Expense(nil), s.expenses...)
}

// ExpensesForGroup returns the expenses owned by groupID.
func (s *MemoryStore) ExpensesForGroup(groupID string) []models.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Expense
	for _, e := range s.expenses {
		if e.GroupID == groupID {
			out = append(out, e)
		}
	}
	return out
}

// ExpenseByID looks up one expense by ID.
func (s *MemoryStore) ExpenseByID(id string) (models.Expense, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i, ok := s.expenseIndex[id]; ok {
		return s.expenses[i], true
	}
	return models.Expense{}, false
}

// Friends returns the roster in insertion order.
func (s *MemoryStore) Friends() []models.AccountFriend {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.AccountFriend(nil), s.friends...)
}

// AddGroup creates a group from a name and member display names.
func (s *MemoryStore) AddGroup(name string, memberNames []string) models.SpendingGroup {
	g := models.SpendingGroup{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	for _, n := range memberNames {
		g.Members = append(g.Members, models.GroupMember{ID: uuid.New().String(), Name: n})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.groupIndex[g.ID] = len(s.groups)
	s.groups = append(s.groups, g)
	return g
}

// AddExistingGroup inserts a fully formed group, a no-op on duplicate ID.
func (s *MemoryStore) AddExistingGroup(g models.SpendingGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.groupIndex[g.ID]; exists {
		return
	}
	s.groupIndex[g.ID] = len(s.groups)
	s.groups = append(s.groups, g)
}

// AddExpense inserts an expense, a no-op on duplicate ID.
func (s *MemoryStore) AddExpense(e models.Expense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.expenseIndex[e.ID]; exists {
		return
	}
	s.expenseIndex[e.ID] = len(s.expenses)
	s.expenses = append(s.expenses, e)
}

// AddImportedFriend inserts a friend, a no-op on duplicate member ID.
func (s *MemoryStore) AddImportedFriend(f models.AccountFriend) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.friendIndex[f.MemberID]; exists {
		return
	}
	s.friendIndex[f.MemberID] = len(s.friends)
	s.friends = append(s.friends, f)
}

// ReplaceFriends swaps the roster for a reconciled list.
func (s *MemoryStore) ReplaceFriends(friends []models.AccountFriend) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.friends = append([]models.AccountFriend(nil), friends...)
	s.friendIndex = make(map[string]int, len(friends))
	for i, f := range friends {
		s.friendIndex[f.MemberID] = i
	}
}

// AttachGroupMember appends a member to an existing group, a no-op when
// the member ID is already present.
func (s *MemoryStore) AttachGroupMember(groupID string, m models.GroupMember) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.groupIndex[groupID]
	if !ok {
		return false
	}
	for _, existing := range s.groups[i].Members {
		if existing.ID == m.ID {
			return true
		}
	}
	s.groups[i].Members = append(s.groups[i].Members, m)
	return true
}

// mutateExpense applies fn to the stored expense with the given ID under
// the write lock. Used by the importer to attach splits and subexpense
// links after the base expense row has been applied.
func (s *MemoryStore) mutateExpense(id string, fn func(e *models.Expense)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.expenseIndex[id]
	if !ok {
		return false
	}
	fn(&s.expenses[i])
	return true
}

// AttachSplit appends a split to an existing expense, a no-op when either
// the expense is unknown or the split ID is already present.
func (s *MemoryStore) AttachSplit(expenseID string, split models.ExpenseSplit) bool {
	return s.mutateExpense(expenseID, func(e *models.Expense) {
		for _, existing := range e.Splits {
			if existing.ID == split.ID {
				return
			}
		}
		e.Splits = append(e.Splits, split)
	})
}

// AttachInvolvedMember records a member as involved in an expense,
// deduplicating on member ID.
func (s *MemoryStore) AttachInvolvedMember(expenseID, memberID string) bool {
	return s.mutateExpense(expenseID, func(e *models.Expense) {
		for _, existing := range e.InvolvedMemberIDs {
			if existing == memberID {
				return
			}
		}
		e.InvolvedMemberIDs = append(e.InvolvedMemberIDs, memberID)
	})
}

// AttachSubexpense appends an itemized line to an existing expense, a
// no-op when either the expense is unknown or the ID is already present.
func (s *MemoryStore) AttachSubexpense(expenseID string, sub models.Subexpense) bool {
	return s.mutateExpense(expenseID, func(e *models.Expense) {
		for _, existing := range e.Subexpenses {
			if existing.ID == sub.ID {
				return
			}
		}
		e.Subexpenses = append(e.Subexpenses, sub)
	})
}

// SetParticipantName caches a display name on an expense.
func (s *MemoryStore) SetParticipantName(expenseID, memberID, name string) bool {
	return s.mutateExpense(expenseID, func(e *models.Expense) {
		if e.ParticipantNames == nil {
			e.ParticipantNames = make(map[string]string)
		}
		e.ParticipantNames[memberID] = name
	})
}
