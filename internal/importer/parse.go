package importer

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Envelope markers. Anything outside them is ignored; the payload may be
// embedded in surrounding text (mail body, chat message).
const (
	startMarker = "===PAYBACK_EXPORT==="
	endMarker   = "===END_PAYBACK_EXPORT==="
)

// Section labels. Unknown labels are skipped so newer exports still parse.
const (
	sectionFriends          = "[FRIENDS]"
	sectionGroups           = "[GROUPS]"
	sectionGroupMembers     = "[GROUP_MEMBERS]"
	sectionExpenses         = "[EXPENSES]"
	sectionExpenseInvolved  = "[EXPENSE_INVOLVED]"
	sectionExpenseSplits    = "[EXPENSE_SPLITS]"
	sectionSubexpenses      = "[EXPENSE_SUBEXPENSES]"
	sectionParticipantNames = "[PARTICIPANT_NAMES]"
)

// Header keys, all optional.
const (
	headerExportedAt      = "EXPORTED_AT"
	headerAccountEmail    = "ACCOUNT_EMAIL"
	headerCurrentUserID   = "CURRENT_USER_ID"
	headerCurrentUserName = "CURRENT_USER_NAME"
)

// ParsedExportData is the staging area between parsing and applying:
// parsed-but-not-yet-applied records, discarded once merged into the store.
type ParsedExportData struct {
	ExportedAt      *time.Time
	AccountEmail    string
	CurrentUserID   string
	CurrentUserName string

	Friends          []ParsedFriend
	Groups           []ParsedGroup
	GroupMembers     []ParsedGroupMember
	Expenses         []ParsedExpense
	InvolvedMembers  []ParsedInvolvedMember
	Splits           []ParsedSplit
	Subexpenses      []ParsedSubexpense
	ParticipantNames []ParsedParticipantName
}

// ParsedFriend mirrors one [FRIENDS] row. RawStatus keeps whatever status
// vocabulary the export used; normalization happens at apply time.
type ParsedFriend struct {
	MemberID           string
	Name               string
	Nickname           string
	HasLinkedAccount   bool
	LinkedAccountID    string
	LinkedAccountEmail string
	RawStatus          string
}

// ParsedGroup mirrors one [GROUPS] row.
type ParsedGroup struct {
	ID        string
	Name      string
	CreatedAt time.Time
	IsDirect  bool
	IsDebug   bool
}

// ParsedGroupMember mirrors one [GROUP_MEMBERS] row.
type ParsedGroupMember struct {
	GroupID        string
	MemberID       string
	Name           string
	LinkedFriendID string // empty when the member's own ID is the roster key
}

// ParsedExpense mirrors one [EXPENSES] row.
type ParsedExpense struct {
	ID          string
	GroupID     string
	Description string
	Date        time.Time
	Amount      decimal.Decimal
	PayerID     string
	IsSettled   bool
}

// ParsedInvolvedMember mirrors one [EXPENSE_INVOLVED] row.
type ParsedInvolvedMember struct {
	ExpenseID string
	MemberID  string
}

// ParsedSplit mirrors one [EXPENSE_SPLITS] row.
type ParsedSplit struct {
	ID        string
	ExpenseID string
	MemberID  string
	Amount    decimal.Decimal
	IsSettled bool
}

// ParsedSubexpense mirrors one [EXPENSE_SUBEXPENSES] row.
type ParsedSubexpense struct {
	ID          string
	ExpenseID   string
	Description string
	Amount      decimal.Decimal
}

// ParsedParticipantName mirrors one [PARTICIPANT_NAMES] row.
type ParsedParticipantName struct {
	ExpenseID string
	MemberID  string
	Name      string
}

// hasEnvelope reports whether both markers are present somewhere in the
// text. Their absence is the sole trigger for IncompatibleFormat.
func hasEnvelope(text string) bool {
	return strings.Contains(text, startMarker) && strings.Contains(text, endMarker)
}

// parseExport walks the payload between the envelope markers and fills the
// staging area. Row-level failures land in the returned error list; they
// never abort the rest of the payload.
func parseExport(text string) (*ParsedExportData, []string) {
	data := &ParsedExportData{}
	var rowErrors []string

	inEnvelope := false
	section := ""
	lineNo := 0

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == startMarker:
			inEnvelope = true
			continue
		case line == endMarker:
			inEnvelope = false
			continue
		case !inEnvelope:
			continue
		case line == "":
			// Blank line terminates the current section body.
			section = ""
			continue
		case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
			section = line
			continue
		}

		if section == "" {
			parseHeaderLine(data, line)
			continue
		}

		if err := parseRow(data, section, line); err != nil {
			rowErrors = append(rowErrors, fmt.Sprintf("line %d: %v", lineNo, err))
		}
	}

	return data, rowErrors
}

// parseHeaderLine handles the optional "KEY: value" lines between the start
// marker and the first section. Unknown keys and stray text are ignored.
func parseHeaderLine(data *ParsedExportData, line string) {
	key, value, found := strings.Cut(line, ":")
	if !found {
		return
	}
	value = strings.TrimSpace(value)

	switch strings.TrimSpace(key) {
	case headerExportedAt:
		if ts, err := time.Parse(time.RFC3339, value); err == nil {
			data.ExportedAt = &ts
		}
	case headerAccountEmail:
		data.AccountEmail = value
	case headerCurrentUserID:
		data.CurrentUserID = value
	case headerCurrentUserName:
		data.CurrentUserName = value
	}
}

// parseRow dispatches one data row to its section's field layout. Unknown
// sections are skipped for forward compatibility.
func parseRow(data *ParsedExportData, section, line string) error {
	fields, err := splitRow(line)
	if err != nil {
		return fmt.Errorf("%s: %w", section, err)
	}

	switch section {
	case sectionFriends:
		return parseFriendRow(data, fields)
	case sectionGroups:
		return parseGroupRow(data, fields)
	case sectionGroupMembers:
		return parseGroupMemberRow(data, fields)
	case sectionExpenses:
		return parseExpenseRow(data, fields)
	case sectionExpenseInvolved:
		return parseInvolvedRow(data, fields)
	case sectionExpenseSplits:
		return parseSplitRow(data, fields)
	case sectionSubexpenses:
		return parseSubexpenseRow(data, fields)
	case sectionParticipantNames:
		return parseParticipantNameRow(data, fields)
	default:
		return nil
	}
}

// splitRow parses one comma-delimited row. CSV quoting covers fields with
// embedded commas (descriptions, names).
func splitRow(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	fields, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("malformed row: %w", err)
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields, nil
}

func parseFriendRow(data *ParsedExportData, fields []string) error {
	// Current exports carry 6 fields; older variants append a status column.
	if len(fields) != 6 && len(fields) != 7 {
		return fmt.Errorf("friend row: want 6 or 7 fields, got %d", len(fields))
	}
	if fields[0] == "" {
		return fmt.Errorf("friend row: empty member id")
	}
	linked, err := parseBoolField("hasLinkedAccount", fields[3])
	if err != nil {
		return fmt.Errorf("friend row: %w", err)
	}

	f := ParsedFriend{
		MemberID:           fields[0],
		Name:               fields[1],
		Nickname:           fields[2],
		HasLinkedAccount:   linked,
		LinkedAccountID:    fields[4],
		LinkedAccountEmail: fields[5],
	}
	if len(fields) == 7 {
		f.RawStatus = fields[6]
	}
	data.Friends = append(data.Friends, f)
	return nil
}

func parseGroupRow(data *ParsedExportData, fields []string) error {
	if len(fields) != 5 {
		return fmt.Errorf("group row: want 5 fields, got %d", len(fields))
	}
	if fields[0] == "" {
		return fmt.Errorf("group row: empty group id")
	}
	createdAt, err := parseTimeField("createdAt", fields[2])
	if err != nil {
		return fmt.Errorf("group row: %w", err)
	}
	isDirect, err := parseBoolField("isDirect", fields[3])
	if err != nil {
		return fmt.Errorf("group row: %w", err)
	}
	isDebug, err := parseBoolField("isDebug", fields[4])
	if err != nil {
		return fmt.Errorf("group row: %w", err)
	}

	data.Groups = append(data.Groups, ParsedGroup{
		ID:        fields[0],
		Name:      fields[1],
		CreatedAt: createdAt,
		IsDirect:  isDirect,
		IsDebug:   isDebug,
	})
	return nil
}

func parseGroupMemberRow(data *ParsedExportData, fields []string) error {
	if len(fields) != 4 {
		return fmt.Errorf("group member row: want 4 fields, got %d", len(fields))
	}
	if fields[0] == "" || fields[1] == "" {
		return fmt.Errorf("group member row: empty id")
	}
	data.GroupMembers = append(data.GroupMembers, ParsedGroupMember{
		GroupID:        fields[0],
		MemberID:       fields[1],
		Name:           fields[2],
		LinkedFriendID: fields[3],
	})
	return nil
}

func parseExpenseRow(data *ParsedExportData, fields []string) error {
	if len(fields) != 7 {
		return fmt.Errorf("expense row: want 7 fields, got %d", len(fields))
	}
	if fields[0] == "" || fields[1] == "" {
		return fmt.Errorf("expense row: empty id")
	}
	date, err := parseTimeField("date", fields[3])
	if err != nil {
		return fmt.Errorf("expense row: %w", err)
	}
	amount, err := parseDecimalField("amount", fields[4])
	if err != nil {
		return fmt.Errorf("expense row: %w", err)
	}
	settled, err := parseBoolField("isSettled", fields[6])
	if err != nil {
		return fmt.Errorf("expense row: %w", err)
	}

	data.Expenses = append(data.Expenses, ParsedExpense{
		ID:          fields[0],
		GroupID:     fields[1],
		Description: fields[2],
		Date:        date,
		Amount:      amount,
		PayerID:     fields[5],
		IsSettled:   settled,
	})
	return nil
}

func parseInvolvedRow(data *ParsedExportData, fields []string) error {
	if len(fields) != 2 {
		return fmt.Errorf("involved row: want 2 fields, got %d", len(fields))
	}
	if fields[0] == "" || fields[1] == "" {
		return fmt.Errorf("involved row: empty id")
	}
	data.InvolvedMembers = append(data.InvolvedMembers, ParsedInvolvedMember{
		ExpenseID: fields[0],
		MemberID:  fields[1],
	})
	return nil
}

func parseSplitRow(data *ParsedExportData, fields []string) error {
	if len(fields) != 5 {
		return fmt.Errorf("split row: want 5 fields, got %d", len(fields))
	}
	if fields[0] == "" || fields[1] == "" {
		return fmt.Errorf("split row: empty id")
	}
	amount, err := parseDecimalField("amount", fields[3])
	if err != nil {
		return fmt.Errorf("split row: %w", err)
	}
	settled, err := parseBoolField("isSettled", fields[4])
	if err != nil {
		return fmt.Errorf("split row: %w", err)
	}

	data.Splits = append(data.Splits, ParsedSplit{
		ID:        fields[0],
		ExpenseID: fields[1],
		MemberID:  fields[2],
		Amount:    amount,
		IsSettled: settled,
	})
	return nil
}

func parseSubexpenseRow(data *ParsedExportData, fields []string) error {
	if len(fields) != 4 {
		return fmt.Errorf("subexpense row: want 4 fields, got %d", len(fields))
	}
	if fields[0] == "" || fields[1] == "" {
		return fmt.Errorf("subexpense row: empty id")
	}
	amount, err := parseDecimalField("amount", fields[3])
	if err != nil {
		return fmt.Errorf("subexpense row: %w", err)
	}
	data.Subexpenses = append(data.Subexpenses, ParsedSubexpense{
		ID:          fields[0],
		ExpenseID:   fields[1],
		Description: fields[2],
		Amount:      amount,
	})
	return nil
}

func parseParticipantNameRow(data *ParsedExportData, fields []string) error {
	if len(fields) != 3 {
		return fmt.Errorf("participant name row: want 3 fields, got %d", len(fields))
	}
	if fields[0] == "" || fields[1] == "" {
		return fmt.Errorf("participant name row: empty id")
	}
	data.ParticipantNames = append(data.ParticipantNames, ParsedParticipantName{
		ExpenseID: fields[0],
		MemberID:  fields[1],
		Name:      fields[2],
	})
	return nil
}

func parseBoolField(name, raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(strings.ToLower(raw))
	if err != nil {
		return false, fmt.Errorf("bad %s value %q", name, raw)
	}
	return v, nil
}

func parseTimeField(name, raw string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad %s value %q", name, raw)
	}
	return ts, nil
}

func parseDecimalField(name, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("bad %s value %q", name, raw)
	}
	return d, nil
}
