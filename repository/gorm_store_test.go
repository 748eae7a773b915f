package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sync"
	"testing"
	"time"

	"referral-tracking-api/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type stepKind int

const (
	kindQuery stepKind = iota
	kindExec
)

// queryStep is one statement the scripted driver expects, in order.
// With tailArgs only the last len(args) bound values are compared.
type queryStep struct {
	kind     stepKind
	pattern  *regexp.Regexp
	args     []driver.Value
	tailArgs bool
	columns  []string
	rows     [][]driver.Value
	err      error
	result   driver.Result
}

type scriptedDB struct {
	mu    sync.Mutex
	steps []*queryStep
}

func (db *scriptedDB) next(kind stepKind, query string, args []driver.NamedValue) (*queryStep, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if len(db.steps) == 0 {
		return nil, fmt.Errorf("unexpected query: %s", query)
	}
	step := db.steps[0]
	if step.kind != kind {
		return nil, fmt.Errorf("unexpected kind for query %s: got %v want %v", query, kind, step.kind)
	}
	if !step.pattern.MatchString(query) {
		return nil, fmt.Errorf("unexpected query: %s", query)
	}
	offset := 0
	if step.tailArgs {
		if len(args) < len(step.args) {
			return nil, fmt.Errorf("unexpected arg count for %s: got %d want at least %d", query, len(args), len(step.args))
		}
		offset = len(args) - len(step.args)
	} else if len(step.args) != len(args) {
		return nil, fmt.Errorf("unexpected arg count for %s: got %d want %d", query, len(args), len(step.args))
	}
	for i, want := range step.args {
		if got := args[offset+i].Value; got != want {
			return nil, fmt.Errorf("unexpected arg %d for %s: got %v want %v", offset+i, query, got, want)
		}
	}
	db.steps = db.steps[1:]
	return step, nil
}

func (db *scriptedDB) verifyComplete() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if len(db.steps) != 0 {
		return fmt.Errorf("unmet expectations: %d, next %s", len(db.steps), db.steps[0].pattern)
	}
	return nil
}

type scriptedDriver struct {
	db *scriptedDB
}

func (d *scriptedDriver) Open(string) (driver.Conn, error) {
	return &scriptedConn{db: d.db}, nil
}

type scriptedConn struct {
	db *scriptedDB
}

func (c *scriptedConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}

func (c *scriptedConn) Close() error { return nil }

func (c *scriptedConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions not supported")
}

func (c *scriptedConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	step, err := c.db.next(kindQuery, query, args)
	if err != nil {
		return nil, err
	}
	if step.err != nil {
		return nil, step.err
	}
	return &scriptedRows{columns: step.columns, rows: step.rows}, nil
}

func (c *scriptedConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	step, err := c.db.next(kindExec, query, args)
	if err != nil {
		return nil, err
	}
	if step.err != nil {
		return nil, step.err
	}
	if step.result != nil {
		return step.result, nil
	}
	return scriptedResult{}, nil
}

type scriptedResult struct {
	lastInsertID int64
	rowsAffected int64
}

func (r scriptedResult) LastInsertId() (int64, error) { return r.lastInsertID, nil }

func (r scriptedResult) RowsAffected() (int64, error) { return r.rowsAffected, nil }

type scriptedRows struct {
	columns []string
	rows    [][]driver.Value
	idx     int
}

func (r *scriptedRows) Columns() []string { return r.columns }

func (r *scriptedRows) Close() error { return nil }

func (r *scriptedRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		return io.EOF
	}
	row := r.rows[r.idx]
	for i := range dest {
		dest[i] = nil
	}
	copy(dest, row)
	r.idx++
	return nil
}

// newScriptedStore opens a gormStore over the scripted driver. Default
// transactions are skipped since the driver has no Begin.
func newScriptedStore(t *testing.T, steps []*queryStep) (Store, *scriptedDB) {
	t.Helper()
	state := &scriptedDB{steps: steps}
	driverName := fmt.Sprintf("scripted_repo_%d", time.Now().UnixNano())
	sql.Register(driverName, &scriptedDriver{db: state})

	sqlDB, err := sql.Open(driverName, "")
	if err != nil {
		t.Fatalf("failed to open sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to create gorm db: %v", err)
	}
	return NewStore(gormDB), state
}

var casUpdate = regexp.MustCompile("^UPDATE `referrals` SET .*`revision`=revision \\+ 1.* WHERE \\(?id = \\? AND revision = \\?\\)?$")

func TestUpdateReferralComparesRevision(t *testing.T) {
	store, state := newScriptedStore(t, []*queryStep{
		{kind: kindExec, pattern: casUpdate, args: []driver.Value{int64(7), int64(3)}, tailArgs: true, result: scriptedResult{rowsAffected: 1}},
		{kind: kindExec, pattern: casUpdate, args: []driver.Value{int64(7), int64(4)}, tailArgs: true, result: scriptedResult{rowsAffected: 0}},
	})

	referral := &models.Referral{
		ID:                 7,
		CandidateName:      "Jane Doe",
		CandidateType:      models.CandidateIntern,
		ReferralReasonType: models.ReasonTalentBased,
		CurrentStatus:      models.StatusConsidered,
		Revision:           3,
	}
	if err := store.UpdateReferral(context.Background(), referral); err != nil {
		t.Fatalf("UpdateReferral: %v", err)
	}
	if referral.Revision != 4 {
		t.Fatalf("revision = %d, want 4", referral.Revision)
	}

	if err := store.UpdateReferral(context.Background(), referral); !errors.Is(err, ErrStaleRevision) {
		t.Fatalf("stale update err = %v, want ErrStaleRevision", err)
	}
	if referral.Revision != 4 {
		t.Fatalf("revision after stale update = %d, want 4", referral.Revision)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestListReferralsFiltersByLinkedSBU(t *testing.T) {
	store, state := newScriptedStore(t, []*queryStep{{
		kind: kindQuery,
		pattern: regexp.MustCompile("^SELECT \\* FROM `referrals` WHERE current_status IN \\(\\?,\\?\\) AND id IN \\(SELECT .*referral_id.* FROM `referral_sbus` " +
			"JOIN sbus ON sbus\\.id = referral_sbus\\.sbu_id WHERE LOWER\\(sbus\\.email\\) = \\?\\) ORDER BY submitted_at DESC, id DESC$"),
		args:    []driver.Value{models.StatusConsidered, models.StatusFinalAccepted, "a@x.com"},
		columns: []string{"id", "referrer_emp_id", "current_status"},
		rows:    [][]driver.Value{},
	}})

	referrals, err := store.ListReferrals(context.Background(), ReferralFilter{
		Statuses: []string{models.StatusConsidered, models.StatusFinalAccepted},
		SBUEmail: "A@x.com",
	})
	if err != nil {
		t.Fatalf("ListReferrals: %v", err)
	}
	if len(referrals) != 0 {
		t.Fatalf("referrals = %+v", referrals)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func deleteSteps(referralRows int64) []*queryStep {
	id := []driver.Value{int64(7)}
	return []*queryStep{
		{kind: kindExec, pattern: regexp.MustCompile("^DELETE FROM `reviews` WHERE referral_id = \\?$"), args: id, result: scriptedResult{rowsAffected: 2}},
		{kind: kindExec, pattern: regexp.MustCompile("^DELETE FROM `hr_evaluations` WHERE referral_id = \\?$"), args: id, result: scriptedResult{rowsAffected: 1}},
		{kind: kindExec, pattern: regexp.MustCompile("^DELETE FROM referral_sbus WHERE referral_id = \\?$"), args: id, result: scriptedResult{rowsAffected: 1}},
		{kind: kindExec, pattern: regexp.MustCompile("^DELETE FROM `referrals` WHERE .*id.* = \\?$"), args: id, result: scriptedResult{rowsAffected: referralRows}},
	}
}

func TestDeleteReferralRemovesChildrenFirst(t *testing.T) {
	store, state := newScriptedStore(t, deleteSteps(1))
	if err := store.DeleteReferral(context.Background(), 7); err != nil {
		t.Fatalf("DeleteReferral: %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}

	store, state = newScriptedStore(t, deleteSteps(0))
	if err := store.DeleteReferral(context.Background(), 7); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing referral err = %v, want ErrNotFound", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestFindSBUsByEmailsIgnoresCase(t *testing.T) {
	store, state := newScriptedStore(t, []*queryStep{{
		kind:    kindQuery,
		pattern: regexp.MustCompile("^SELECT \\* FROM `sbus` WHERE LOWER\\(email\\) IN \\(\\?,\\?\\) ORDER BY id$"),
		args:    []driver.Value{"a@x.com", "b@x.com"},
		columns: []string{"id", "name", "email"},
		rows:    [][]driver.Value{{int64(900), "Rita Reviewer", "a@x.com"}},
	}})

	sbus, err := store.FindSBUsByEmails(context.Background(), []string{"A@X.com", "b@x.COM"})
	if err != nil {
		t.Fatalf("FindSBUsByEmails: %v", err)
	}
	if len(sbus) != 1 || sbus[0].ID != 900 || sbus[0].Email != "a@x.com" {
		t.Fatalf("sbus = %+v", sbus)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestFindUserByEmpIDNotFound(t *testing.T) {
	store, state := newScriptedStore(t, []*queryStep{{
		kind:    kindQuery,
		pattern: regexp.MustCompile("^SELECT \\* FROM `users` WHERE emp_id = \\?"),
		args:    []driver.Value{"E404"},
		columns: []string{"id", "emp_id"},
		rows:    [][]driver.Value{},
	}})

	if _, err := store.FindUserByEmpID(context.Background(), "E404"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestTranslate(t *testing.T) {
	if translate(nil) != nil {
		t.Fatal("nil should stay nil")
	}
	if err := translate(gorm.ErrRecordNotFound); !errors.Is(err, ErrNotFound) {
		t.Fatalf("record not found -> %v", err)
	}
	if err := translate(gorm.ErrDuplicatedKey); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicated key -> %v", err)
	}
	other := errors.New("connection reset")
	if err := translate(other); err != other {
		t.Fatalf("other error -> %v", err)
	}
}
