package sheets

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/kyuwon-shim-ARL/email-agent/internal/triage/domain"
)

const (
	historyTab = "Emails"
	senderTab  = "Senders"
)

// History tab column indexes (A..P).
const (
	colStatus = iota
	colPriority
	colSubject
	colSender
	colPreview
	colSummary
	colLabels
	colDraftSubject
	colDraftBody
	colDraftID
	colSend
	colReplied
	colThreadID
	colCreatedAt
	colUpdatedAt
	colNote
	historyCols
)

var historyHeaders = []string{
	"Status", "Priority", "Subject", "Sender", "Preview", "Summary", "Labels",
	"Draft Subject", "Draft Body", "Draft ID", "Send", "Replied", "Thread ID",
	"Created At", "Updated At", "Note",
}

var senderHeaders = []string{
	"Address", "Name", "Auto Score", "Grade", "Final Score", "Sent", "Received",
	"High Priority", "Recent 7d", "Last Contact", "Note",
}

// Sender tab column indexes (A..K).
const (
	senderColAddress = iota
	senderColName
	senderColAutoScore
	senderColGrade
	senderColFinalScore
	senderColSent
	senderColReceived
	senderColHighPriority
	senderColRecent
	senderColLastContact
	senderColNote
	senderCols
)

// Tracker persists triage history and sender profiles in a two-tab Google
// spreadsheet. The grade, note and send-checkbox cells are human-owned: the
// tracker never overwrites them on update.
type Tracker struct {
	srv           *sheets.Service
	spreadsheetID string
	logger        *log.Logger

	// thread id → 1-based row, loaded lazily and kept current across this
	// run's writes. Runs are serialized so no locking is needed.
	historyRows map[string]int
	senderRows  map[string]int
}

// NewTracker creates a Tracker over an authenticated HTTP client.
func NewTracker(ctx context.Context, client *http.Client, spreadsheetID string, logger *log.Logger) (*Tracker, error) {
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Tracker{
		srv:           srv,
		spreadsheetID: spreadsheetID,
		logger:        logger.WithPrefix("sheets"),
	}, nil
}

// SpreadsheetID returns the tracker's spreadsheet id, which may have been
// created by EnsureTracker.
func (t *Tracker) SpreadsheetID() string {
	return t.spreadsheetID
}

// EnsureTracker makes sure the spreadsheet and both tabs exist with their
// headers. With no spreadsheet id configured a new spreadsheet is created
// and its id retained.
func (t *Tracker) EnsureTracker(ctx context.Context) error {
	if t.spreadsheetID == "" {
		created, err := t.srv.Spreadsheets.Create(&sheets.Spreadsheet{
			Properties: &sheets.SpreadsheetProperties{Title: "Email Tracker"},
			Sheets: []*sheets.Sheet{
				{Properties: &sheets.SheetProperties{
					Title:          historyTab,
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
				}},
				{Properties: &sheets.SheetProperties{
					Title:          senderTab,
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
				}},
			},
		}).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("create tracker spreadsheet: %w", err)
		}
		t.spreadsheetID = created.SpreadsheetId
		t.logger.Info("created tracker spreadsheet", "id", t.spreadsheetID)

		if err := t.writeHeaders(ctx, historyTab, historyHeaders); err != nil {
			return err
		}
		if err := t.writeHeaders(ctx, senderTab, senderHeaders); err != nil {
			return err
		}
		return t.formatHeaders(ctx, created.Sheets)
	}

	// Existing spreadsheet: add any missing tab.
	meta, err := t.srv.Spreadsheets.Get(t.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("inspect tracker spreadsheet: %w", err)
	}
	existing := map[string]bool{}
	for _, sh := range meta.Sheets {
		existing[sh.Properties.Title] = true
	}

	var requests []*sheets.Request
	for _, tab := range []string{historyTab, senderTab} {
		if !existing[tab] {
			requests = append(requests, &sheets.Request{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{
						Title:          tab,
						GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
					},
				},
			})
		}
	}
	if len(requests) > 0 {
		if _, err := t.srv.Spreadsheets.BatchUpdate(t.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
			Requests: requests,
		}).Context(ctx).Do(); err != nil {
			return fmt.Errorf("add tracker tabs: %w", err)
		}
		if !existing[historyTab] {
			if err := t.writeHeaders(ctx, historyTab, historyHeaders); err != nil {
				return err
			}
		}
		if !existing[senderTab] {
			if err := t.writeHeaders(ctx, senderTab, senderHeaders); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Tracker) writeHeaders(ctx context.Context, tab string, headers []string) error {
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	_, err := t.srv.Spreadsheets.Values.Update(t.spreadsheetID,
		fmt.Sprintf("%s!A1", tab),
		&sheets.ValueRange{Values: [][]interface{}{row}},
	).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write %s headers: %w", tab, err)
	}
	return nil
}

func (t *Tracker) formatHeaders(ctx context.Context, tabs []*sheets.Sheet) error {
	var requests []*sheets.Request
	for _, sh := range tabs {
		requests = append(requests, &sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:       sh.Properties.SheetId,
					StartRowIndex: 0,
					EndRowIndex:   1,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						BackgroundColor: &sheets.Color{Red: 0.2, Green: 0.2, Blue: 0.2},
						TextFormat: &sheets.TextFormat{
							ForegroundColor: &sheets.Color{Red: 1, Green: 1, Blue: 1},
							Bold:            true,
						},
					},
				},
				Fields: "userEnteredFormat(backgroundColor,textFormat)",
			},
		})
	}
	if _, err := t.srv.Spreadsheets.BatchUpdate(t.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("format headers: %w", err)
	}
	return nil
}

func (t *Tracker) readRange(ctx context.Context, a1 string) ([][]interface{}, error) {
	resp, err := t.srv.Spreadsheets.Values.Get(t.spreadsheetID, a1).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", a1, err)
	}
	return resp.Values, nil
}

func cell(row []interface{}, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[i]))
}

func cellInt(row []interface{}, i int) int {
	n, _ := strconv.Atoi(cell(row, i))
	return n
}

func cellBool(row []interface{}, i int) bool {
	switch strings.ToUpper(cell(row, i)) {
	case "TRUE", "YES", "Y", "X", "✓":
		return true
	}
	return false
}

func (t *Tracker) loadHistory(ctx context.Context) error {
	if t.historyRows != nil {
		return nil
	}
	rows, err := t.readRange(ctx, historyTab+"!A2:P")
	if err != nil {
		return err
	}
	t.historyRows = make(map[string]int, len(rows))
	for i, row := range rows {
		if id := cell(row, colThreadID); id != "" {
			t.historyRows[id] = i + 2
		}
	}
	return nil
}

func recordFromRow(row []interface{}, rowNum int) *domain.HistoryRecord {
	return &domain.HistoryRecord{
		ThreadID:     cell(row, colThreadID),
		Status:       domain.Status(cell(row, colStatus)),
		Priority:     cellInt(row, colPriority),
		Labels:       cell(row, colLabels),
		Subject:      cell(row, colSubject),
		Sender:       cell(row, colSender),
		Preview:      cell(row, colPreview),
		Summary:      cell(row, colSummary),
		DraftSubject: cell(row, colDraftSubject),
		DraftBody:    cell(row, colDraftBody),
		Replied:      cellBool(row, colReplied),
		DraftID:      cell(row, colDraftID),
		Row:          rowNum,
	}
}

// FindHistoryRecord returns the record tracking threadID, or nil when the
// thread has never been recorded.
func (t *Tracker) FindHistoryRecord(ctx context.Context, threadID string) (*domain.HistoryRecord, error) {
	if err := t.loadHistory(ctx); err != nil {
		return nil, err
	}
	rowNum, ok := t.historyRows[threadID]
	if !ok {
		return nil, nil
	}
	rows, err := t.readRange(ctx, fmt.Sprintf("%s!A%d:P%d", historyTab, rowNum, rowNum))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return recordFromRow(rows[0], rowNum), nil
}

func historyRow(rec *domain.HistoryRecord, send, createdAt, note string) []interface{} {
	row := make([]interface{}, historyCols)
	row[colStatus] = string(rec.Status)
	row[colPriority] = strconv.Itoa(rec.Priority)
	row[colSubject] = rec.Subject
	row[colSender] = rec.Sender
	row[colPreview] = truncate(rec.Preview, 500)
	row[colSummary] = rec.Summary
	row[colLabels] = rec.Labels
	row[colDraftSubject] = rec.DraftSubject
	row[colDraftBody] = rec.DraftBody
	row[colDraftID] = rec.DraftID
	row[colSend] = send
	row[colReplied] = strings.ToUpper(strconv.FormatBool(rec.Replied))
	row[colThreadID] = rec.ThreadID
	row[colCreatedAt] = createdAt
	row[colUpdatedAt] = time.Now().Format("2006-01-02 15:04:05")
	row[colNote] = note
	return row
}

// InsertHistoryRecord appends a new row and records its position on rec.
func (t *Tracker) InsertHistoryRecord(ctx context.Context, rec *domain.HistoryRecord) error {
	if err := t.loadHistory(ctx); err != nil {
		return err
	}
	now := time.Now().Format("2006-01-02 15:04:05")
	resp, err := t.srv.Spreadsheets.Values.Append(t.spreadsheetID,
		historyTab+"!A:P",
		&sheets.ValueRange{Values: [][]interface{}{historyRow(rec, "", now, "")}},
	).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append history row for thread %s: %w", rec.ThreadID, err)
	}

	// A1 range like "Emails!A17:P17" → row 17.
	rec.Row = len(t.historyRows) + 2
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		if n := rowFromRange(resp.Updates.UpdatedRange); n > 0 {
			rec.Row = n
		}
	}
	t.historyRows[rec.ThreadID] = rec.Row
	return nil
}

// UpdateHistoryRecord overwrites the row identified by rec.Row in place,
// preserving the human-owned send checkbox and note cells and the created-at
// stamp.
func (t *Tracker) UpdateHistoryRecord(ctx context.Context, rec *domain.HistoryRecord) error {
	if rec.Row < 2 {
		return fmt.Errorf("update history record for thread %s: no row position", rec.ThreadID)
	}

	existing, err := t.readRange(ctx, fmt.Sprintf("%s!A%d:P%d", historyTab, rec.Row, rec.Row))
	if err != nil {
		return err
	}
	var send, createdAt, note string
	if len(existing) > 0 {
		send = cell(existing[0], colSend)
		createdAt = cell(existing[0], colCreatedAt)
		note = cell(existing[0], colNote)
	}

	_, err = t.srv.Spreadsheets.Values.Update(t.spreadsheetID,
		fmt.Sprintf("%s!A%d", historyTab, rec.Row),
		&sheets.ValueRange{Values: [][]interface{}{historyRow(rec, send, createdAt, note)}},
	).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update history row %d: %w", rec.Row, err)
	}
	t.historyRows[rec.ThreadID] = rec.Row
	return nil
}

// DraftsMarkedForSend returns rows whose send checkbox is set and that still
// carry an unsent draft.
func (t *Tracker) DraftsMarkedForSend(ctx context.Context) ([]*domain.HistoryRecord, error) {
	rows, err := t.readRange(ctx, historyTab+"!A2:P")
	if err != nil {
		return nil, err
	}
	var marked []*domain.HistoryRecord
	for i, row := range rows {
		if !cellBool(row, colSend) {
			continue
		}
		rec := recordFromRow(row, i+2)
		if rec.DraftID == "" || rec.Status == domain.StatusReplied {
			continue
		}
		marked = append(marked, rec)
	}
	return marked, nil
}

// MarkRowReplied flips a row to replied after its draft was sent and clears
// the send checkbox.
func (t *Tracker) MarkRowReplied(ctx context.Context, row int) error {
	if row < 2 {
		return fmt.Errorf("mark replied: invalid row %d", row)
	}
	data := []*sheets.ValueRange{
		{Range: fmt.Sprintf("%s!A%d", historyTab, row), Values: [][]interface{}{{string(domain.StatusReplied)}}},
		{Range: fmt.Sprintf("%s!K%d:L%d", historyTab, row, row), Values: [][]interface{}{{"", "TRUE"}}},
		{Range: fmt.Sprintf("%s!O%d", historyTab, row), Values: [][]interface{}{{time.Now().Format("2006-01-02 15:04:05")}}},
	}
	_, err := t.srv.Spreadsheets.Values.BatchUpdate(t.spreadsheetID, &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("mark row %d replied: %w", row, err)
	}
	return nil
}

func (t *Tracker) loadSenders(ctx context.Context) error {
	if t.senderRows != nil {
		return nil
	}
	rows, err := t.readRange(ctx, senderTab+"!A2:K")
	if err != nil {
		return err
	}
	t.senderRows = make(map[string]int, len(rows))
	for i, row := range rows {
		if addr := strings.ToLower(cell(row, senderColAddress)); addr != "" {
			t.senderRows[addr] = i + 2
		}
	}
	return nil
}

func senderRow(p *domain.SenderProfile, grade domain.ManualGrade, note string) []interface{} {
	final := p.AutoScore
	if s, ok := grade.Score(); ok {
		final = s
	}
	lastContact := ""
	if !p.Stats.LastContact.IsZero() {
		lastContact = p.Stats.LastContact.Format("2006-01-02")
	}
	row := make([]interface{}, senderCols)
	row[senderColAddress] = p.Address
	row[senderColName] = p.Name
	row[senderColAutoScore] = strconv.Itoa(p.AutoScore)
	row[senderColGrade] = string(grade)
	row[senderColFinalScore] = strconv.Itoa(final)
	row[senderColSent] = strconv.Itoa(p.Stats.TotalSent)
	row[senderColReceived] = strconv.Itoa(p.Stats.TotalReceived)
	row[senderColHighPriority] = strconv.Itoa(p.Stats.HighPriorityCount)
	row[senderColRecent] = strconv.Itoa(p.Stats.Recent7Days)
	row[senderColLastContact] = lastContact
	row[senderColNote] = note
	return row
}

// UpsertSenderProfile creates or updates a sender row. On update the grade
// and note cells keep whatever a human put there, and the final score is
// recomputed against the preserved grade.
func (t *Tracker) UpsertSenderProfile(ctx context.Context, profile *domain.SenderProfile) error {
	if err := t.loadSenders(ctx); err != nil {
		return err
	}
	addr := strings.ToLower(profile.Address)

	rowNum, ok := t.senderRows[addr]
	if !ok {
		resp, err := t.srv.Spreadsheets.Values.Append(t.spreadsheetID,
			senderTab+"!A:K",
			&sheets.ValueRange{Values: [][]interface{}{senderRow(profile, profile.ManualGrade, profile.Note)}},
		).ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("append sender row for %s: %w", profile.Address, err)
		}
		rowNum = len(t.senderRows) + 2
		if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
			if n := rowFromRange(resp.Updates.UpdatedRange); n > 0 {
				rowNum = n
			}
		}
		t.senderRows[addr] = rowNum
		return nil
	}

	existing, err := t.readRange(ctx, fmt.Sprintf("%s!A%d:K%d", senderTab, rowNum, rowNum))
	if err != nil {
		return err
	}
	grade := domain.GradeUnset
	note := ""
	name := profile.Name
	if len(existing) > 0 {
		grade = domain.ParseManualGrade(cell(existing[0], senderColGrade))
		note = cell(existing[0], senderColNote)
		if name == "" {
			name = cell(existing[0], senderColName)
		}
	}
	updated := *profile
	updated.Name = name

	_, err = t.srv.Spreadsheets.Values.Update(t.spreadsheetID,
		fmt.Sprintf("%s!A%d", senderTab, rowNum),
		&sheets.ValueRange{Values: [][]interface{}{senderRow(&updated, grade, note)}},
	).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update sender row %d: %w", rowNum, err)
	}
	return nil
}

// SenderGradeScores reads the sender tab and returns address → grade score
// for rows the user has manually graded. Ungraded senders are omitted so
// automatic scores never override the history-based priority rules.
func (t *Tracker) SenderGradeScores(ctx context.Context) (map[string]int, error) {
	rows, err := t.readRange(ctx, senderTab+"!A2:K")
	if err != nil {
		return nil, err
	}
	scores := make(map[string]int, len(rows))
	for _, row := range rows {
		addr := strings.ToLower(cell(row, senderColAddress))
		if addr == "" {
			continue
		}
		if s, ok := domain.ParseManualGrade(cell(row, senderColGrade)).Score(); ok {
			scores[addr] = s
		}
	}
	return scores, nil
}

// rowFromRange extracts the 1-based row from an A1 range like "Emails!A17:P17".
func rowFromRange(a1 string) int {
	if idx := strings.Index(a1, "!"); idx >= 0 {
		a1 = a1[idx+1:]
	}
	if idx := strings.Index(a1, ":"); idx >= 0 {
		a1 = a1[:idx]
	}
	digits := strings.TrimLeftFunc(a1, func(r rune) bool { return r >= 'A' && r <= 'Z' })
	n, _ := strconv.Atoi(digits)
	return n
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
