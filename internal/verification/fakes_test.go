package verification

import (
	"context"
	"errors"
	"io"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ukrch/platform/internal/identity"
	"github.com/ukrch/platform/internal/logging"
	"github.com/ukrch/platform/internal/profile"
)

// callLog records the order in which collaborators are invoked
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type fakeIdentity struct {
	log       *callLog
	mu        sync.Mutex
	accounts  map[uuid.UUID]*identity.Account
	deleteErr error
}

func (f *fakeIdentity) GetAccount(_ context.Context, id uuid.UUID) (*identity.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return nil, identity.ErrAccountNotFound
	}
	cp := *a
	cp.Metadata = make(map[string]any, len(a.Metadata))
	for k, v := range a.Metadata {
		cp.Metadata[k] = v
	}
	return &cp, nil
}

func (f *fakeIdentity) UpdateMetadata(_ context.Context, id uuid.UUID, patch map[string]any) (map[string]any, error) {
	f.log.add("identity.UpdateMetadata")
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return nil, identity.ErrAccountNotFound
	}
	for k, v := range patch {
		if v == nil {
			delete(a.Metadata, k)
			continue
		}
		a.Metadata[k] = v
	}
	return a.Metadata, nil
}

func (f *fakeIdentity) UpdatePassword(_ context.Context, id uuid.UUID, password string) error {
	f.log.add("identity.UpdatePassword")
	if err := identity.CheckPassword(password); err != nil {
		return err
	}
	_, err := f.UpdateMetadata(context.Background(), id, map[string]any{identity.MetaPasswordSet: true})
	return err
}

func (f *fakeIdentity) DeleteAccount(_ context.Context, id uuid.UUID) error {
	f.log.add("identity.DeleteAccount")
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.accounts, id)
	return nil
}

func (f *fakeIdentity) metadata(id uuid.UUID) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accounts[id].Metadata
}

type fakeProfiles struct {
	log     *callLog
	mu      sync.Mutex
	nextID  int64
	rows    map[uuid.UUID]*profile.Profile
	creates int

	// skipPrecheck makes FindByPhoneExcluding miss so that only the
	// unique constraint in SetPhone guards the phone
	skipPrecheck bool
	deleteErr    error
}

func (f *fakeProfiles) Create(_ context.Context, accountID uuid.UUID) (*profile.Profile, error) {
	f.log.add("profiles.Create")
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.rows[accountID]; ok {
		cp := *p
		return &cp, nil
	}
	f.nextID++
	f.creates++
	p := &profile.Profile{ID: strconv.FormatInt(f.nextID, 10), AccountID: accountID}
	f.rows[accountID] = p
	cp := *p
	return &cp, nil
}

func (f *fakeProfiles) GetByAccountID(_ context.Context, accountID uuid.UUID) (*profile.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[accountID]
	if !ok {
		return nil, profile.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfiles) FindByPhoneExcluding(_ context.Context, phone string, accountID uuid.UUID) (*profile.Profile, error) {
	f.log.add("profiles.FindByPhoneExcluding")
	if f.skipPrecheck {
		return nil, profile.ErrNotFound
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, p := range f.rows {
		if id != accountID && p.Phone == phone {
			cp := *p
			return &cp, nil
		}
	}
	return nil, profile.ErrNotFound
}

func (f *fakeProfiles) byID(id string) (*profile.Profile, error) {
	for _, p := range f.rows {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, profile.ErrNotFound
}

func (f *fakeProfiles) SetPhone(_ context.Context, id, phone string) error {
	f.log.add("profiles.SetPhone")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.rows {
		if p.ID != id && p.Phone == phone {
			return profile.ErrPhoneInUse
		}
	}
	p, err := f.byID(id)
	if err != nil {
		return err
	}
	p.Phone = phone
	return nil
}

func (f *fakeProfiles) UpdateDetails(_ context.Context, id string, fields map[string]any) error {
	f.log.add("profiles.UpdateDetails")
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := f.byID(id)
	if err != nil {
		return err
	}
	str := func(k string) string { s, _ := fields[k].(string); return s }
	p.Gender = str(profile.FieldGender)
	p.Nationality = str(profile.FieldNationality)
	p.CountryOfResidence = str(profile.FieldCountryOfResidence)
	p.City = str(profile.FieldCity)
	p.Canton = str(profile.FieldCanton)
	if dob, ok := fields[profile.FieldDateOfBirth].(time.Time); ok {
		p.DateOfBirth = &dob
	}
	return nil
}

func (f *fakeProfiles) DeleteByAccountID(_ context.Context, accountID uuid.UUID) error {
	f.log.add("profiles.DeleteByAccountID")
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, accountID)
	return nil
}

type sentSMS struct {
	to, body string
}

type fakeSMS struct {
	log  *callLog
	mu   sync.Mutex
	sent []sentSMS
	err  error
}

func (f *fakeSMS) Send(_ context.Context, to, body string) error {
	f.log.add("sms.Send")
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentSMS{to, body})
	return nil
}

type fakeContacts struct {
	log     *callLog
	removed []string
	err     error
}

func (f *fakeContacts) Remove(_ context.Context, email string) error {
	f.log.add("contacts.Remove")
	f.removed = append(f.removed, email)
	return f.err
}

var errBoom = errors.New("boom")

type fixture struct {
	wf       *Workflow
	log      *callLog
	identity *fakeIdentity
	profiles *fakeProfiles
	sms      *fakeSMS
	contacts *fakeContacts
	now      time.Time
	code     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := &callLog{}
	f := &fixture{
		log:      log,
		identity: &fakeIdentity{log: log, accounts: map[uuid.UUID]*identity.Account{}},
		profiles: &fakeProfiles{log: log, rows: map[uuid.UUID]*profile.Profile{}},
		sms:      &fakeSMS{log: log},
		contacts: &fakeContacts{log: log},
		now:      time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC),
		code:     "042137",
	}
	f.wf = NewWorkflow(f.identity, f.profiles, f.sms, f.contacts, logging.NewLoggerWithWriter(false, io.Discard))
	f.wf.now = func() time.Time { return f.now }
	f.wf.newCode = func() (string, error) { return f.code, nil }
	return f
}

// addAccount stores an account; confirmed and passwordSet pick its step
func (f *fixture) addAccount(confirmed, passwordSet bool) uuid.UUID {
	id := uuid.New()
	f.identity.accounts[id] = &identity.Account{
		ID:             id,
		Email:          id.String()[:8] + "@example.ch",
		EmailConfirmed: confirmed,
		Metadata:       map[string]any{identity.MetaPasswordSet: passwordSet},
	}
	return id
}

// addProfile stores a profile row with phone bound to an account
func (f *fixture) addProfile(accountID uuid.UUID, phone string) {
	f.profiles.nextID++
	f.profiles.rows[accountID] = &profile.Profile{
		ID:        strconv.FormatInt(f.profiles.nextID, 10),
		AccountID: accountID,
		Phone:     phone,
	}
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}
