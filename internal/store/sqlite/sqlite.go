// Package sqlite persists the store facade's state to a local SQLite
// database using the pure Go driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/paybackapp/payback/internal/models"
	"github.com/paybackapp/payback/internal/store"
)

// DB wraps the SQLite handle. It persists snapshots of the in-memory store
// rather than serving reads itself; the MemoryStore stays the single
// authoritative view while the app runs.
type DB struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath, creating parent
// directories and running migrations.
func New(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Save writes a full snapshot, replacing previous contents in one
// transaction. Snapshots are small (one account's data) so replace-all is
// simpler and safer than diffing.
func (d *DB) Save(ctx context.Context, snap store.Snapshot) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{
		"participant_names", "expense_subexpenses", "expense_splits",
		"expense_involved", "expenses", "group_members", "spending_groups", "friends",
	} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, f := range snap.Friends {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO friends (member_id, name, nickname, has_linked_account, linked_account_id, linked_account_email, status)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			f.MemberID, f.Name, f.Nickname, f.HasLinkedAccount, f.LinkedAccountID, f.LinkedAccountEmail, string(f.Status),
		)
		if err != nil {
			return fmt.Errorf("failed to insert friend: %w", err)
		}
	}

	for _, g := range snap.Groups {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO spending_groups (id, name, created_at, is_direct, is_debug) VALUES (?, ?, ?, ?, ?)",
			g.ID, g.Name, g.CreatedAt.UTC().Format(time.RFC3339), g.IsDirect, g.IsDebug,
		)
		if err != nil {
			return fmt.Errorf("failed to insert group: %w", err)
		}
		for pos, m := range g.Members {
			var linked interface{}
			if m.LinkedFriendID != nil {
				linked = *m.LinkedFriendID
			}
			_, err := tx.ExecContext(ctx,
				"INSERT INTO group_members (group_id, member_id, name, linked_friend_id, position) VALUES (?, ?, ?, ?, ?)",
				g.ID, m.ID, m.Name, linked, pos,
			)
			if err != nil {
				return fmt.Errorf("failed to insert group member: %w", err)
			}
		}
	}

	for pos, e := range snap.Expenses {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO expenses (id, group_id, description, date, amount, payer_id, is_settled, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.GroupID, e.Description, e.Date.UTC().Format(time.RFC3339), e.Amount.String(), e.PayerID, e.IsSettled, pos,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}
		for i, memberID := range e.InvolvedMemberIDs {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO expense_involved (expense_id, member_id, position) VALUES (?, ?, ?)",
				e.ID, memberID, i,
			)
			if err != nil {
				return fmt.Errorf("failed to insert involved member: %w", err)
			}
		}
		for i, s := range e.Splits {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO expense_splits (id, expense_id, member_id, amount, is_settled, position) VALUES (?, ?, ?, ?, ?, ?)",
				s.ID, e.ID, s.MemberID, s.Amount.String(), s.IsSettled, i,
			)
			if err != nil {
				return fmt.Errorf("failed to insert split: %w", err)
			}
		}
		for i, sub := range e.Subexpenses {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO expense_subexpenses (id, expense_id, description, amount, position) VALUES (?, ?, ?, ?, ?)",
				sub.ID, e.ID, sub.Description, sub.Amount.String(), i,
			)
			if err != nil {
				return fmt.Errorf("failed to insert subexpense: %w", err)
			}
		}
		for memberID, name := range e.ParticipantNames {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO participant_names (expense_id, member_id, name) VALUES (?, ?, ?)",
				e.ID, memberID, name,
			)
			if err != nil {
				return fmt.Errorf("failed to insert participant name: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Load reads the persisted snapshot back, preserving insertion order.
func (d *DB) Load(ctx context.Context) (store.Snapshot, error) {
	var snap store.Snapshot

	friends, err := d.loadFriends(ctx)
	if err != nil {
		return snap, err
	}
	groups, err := d.loadGroups(ctx)
	if err != nil {
		return snap, err
	}
	expenses, err := d.loadExpenses(ctx)
	if err != nil {
		return snap, err
	}

	snap.Friends = friends
	snap.Groups = groups
	snap.Expenses = expenses
	return snap, nil
}

func (d *DB) loadFriends(ctx context.Context) ([]models.AccountFriend, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT member_id, name, nickname, has_linked_account, linked_account_id, linked_account_email, status
		 FROM friends ORDER BY rowid`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load friends: %w", err)
	}
	defer rows.Close()

	var friends []models.AccountFriend
	for rows.Next() {
		var f models.AccountFriend
		var status string
		if err := rows.Scan(&f.MemberID, &f.Name, &f.Nickname, &f.HasLinkedAccount,
			&f.LinkedAccountID, &f.LinkedAccountEmail, &status); err != nil {
			return nil, fmt.Errorf("failed to scan friend: %w", err)
		}
		f.Status = models.FriendStatus(status)
		friends = append(friends, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate friends: %w", err)
	}
	return friends, nil
}

func (d *DB) loadGroups(ctx context.Context) ([]models.SpendingGroup, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT id, name, created_at, is_direct, is_debug FROM spending_groups ORDER BY rowid",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load groups: %w", err)
	}
	defer rows.Close()

	var groups []models.SpendingGroup
	for rows.Next() {
		var g models.SpendingGroup
		var createdAt string
		if err := rows.Scan(&g.ID, &g.Name, &createdAt, &g.IsDirect, &g.IsDebug); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
			g.CreatedAt = ts
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}

	for i := range groups {
		members, err := d.loadGroupMembers(ctx, groups[i].ID)
		if err != nil {
			return nil, err
		}
		groups[i].Members = members
	}
	return groups, nil
}

func (d *DB) loadGroupMembers(ctx context.Context, groupID string) ([]models.GroupMember, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT member_id, name, linked_friend_id FROM group_members WHERE group_id = ? ORDER BY position",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load group members: %w", err)
	}
	defer rows.Close()

	var members []models.GroupMember
	for rows.Next() {
		var m models.GroupMember
		var linked sql.NullString
		if err := rows.Scan(&m.ID, &m.Name, &linked); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		if linked.Valid {
			v := linked.String
			m.LinkedFriendID = &v
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group members: %w", err)
	}
	return members, nil
}

func (d *DB) loadExpenses(ctx context.Context) ([]models.Expense, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT id, group_id, description, date, amount, payer_id, is_settled FROM expenses ORDER BY position",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var e models.Expense
		var date, amount string
		if err := rows.Scan(&e.ID, &e.GroupID, &e.Description, &date, &amount, &e.PayerID, &e.IsSettled); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339, date); err == nil {
			e.Date = ts
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("failed to parse expense amount %q: %w", amount, err)
		}
		e.Amount = d
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	for i := range expenses {
		if err := d.loadExpenseDetails(ctx, &expenses[i]); err != nil {
			return nil, err
		}
	}
	return expenses, nil
}

func (d *DB) loadExpenseDetails(ctx context.Context, e *models.Expense) error {
	involved, err := d.db.QueryContext(ctx,
		"SELECT member_id FROM expense_involved WHERE expense_id = ? ORDER BY position", e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to load involved members: %w", err)
	}
	defer involved.Close()
	for involved.Next() {
		var memberID string
		if err := involved.Scan(&memberID); err != nil {
			return fmt.Errorf("failed to scan involved member: %w", err)
		}
		e.InvolvedMemberIDs = append(e.InvolvedMemberIDs, memberID)
	}
	if err := involved.Err(); err != nil {
		return fmt.Errorf("failed to iterate involved members: %w", err)
	}

	splits, err := d.db.QueryContext(ctx,
		"SELECT id, member_id, amount, is_settled FROM expense_splits WHERE expense_id = ? ORDER BY position", e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to load splits: %w", err)
	}
	defer splits.Close()
	for splits.Next() {
		var s models.ExpenseSplit
		var amount string
		if err := splits.Scan(&s.ID, &s.MemberID, &amount, &s.IsSettled); err != nil {
			return fmt.Errorf("failed to scan split: %w", err)
		}
		dec, err := decimal.NewFromString(amount)
		if err != nil {
			return fmt.Errorf("failed to parse split amount %q: %w", amount, err)
		}
		s.Amount = dec
		e.Splits = append(e.Splits, s)
	}
	if err := splits.Err(); err != nil {
		return fmt.Errorf("failed to iterate splits: %w", err)
	}

	subs, err := d.db.QueryContext(ctx,
		"SELECT id, description, amount FROM expense_subexpenses WHERE expense_id = ? ORDER BY position", e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to load subexpenses: %w", err)
	}
	defer subs.Close()
	for subs.Next() {
		var sub models.Subexpense
		var amount string
		if err := subs.Scan(&sub.ID, &sub.Description, &amount); err != nil {
			return fmt.Errorf("failed to scan subexpense: %w", err)
		}
		dec, err := decimal.NewFromString(amount)
		if err != nil {
			return fmt.Errorf("failed to parse subexpense amount %q: %w", amount, err)
		}
		sub.Amount = dec
		e.Subexpenses = append(e.Subexpenses, sub)
	}
	if err := subs.Err(); err != nil {
		return fmt.Errorf("failed to iterate subexpenses: %w", err)
	}

	names, err := d.db.QueryContext(ctx,
		"SELECT member_id, name FROM participant_names WHERE expense_id = ?", e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to load participant names: %w", err)
	}
	defer names.Close()
	for names.Next() {
		var memberID, name string
		if err := names.Scan(&memberID, &name); err != nil {
			return fmt.Errorf("failed to scan participant name: %w", err)
		}
		if e.ParticipantNames == nil {
			e.ParticipantNames = make(map[string]string)
		}
		e.ParticipantNames[memberID] = name
	}
	if err := names.Err(); err != nil {
		return fmt.Errorf("failed to iterate participant names: %w", err)
	}

	return nil
}
