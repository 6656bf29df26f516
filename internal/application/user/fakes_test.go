package user_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	domain "github.com/mohammadpnp/identity-import/internal/domain/user"
)

// memStore is an identity store whose chunk and nested scopes restore a
// snapshot when their function fails.
type memStore struct {
	users    map[string]domain.User
	logins   map[string]domain.Login
	channels map[string]domain.CommunicationChannel

	deletedEnrollments map[string]string
	seq                int

	saveUserErr    func(domain.User) error
	saveLoginErr   func(domain.Login) error
	saveChannelErr func(domain.CommunicationChannel) error
	chunkErr       error

	chunks int
}

func newMemStore() *memStore {
	return &memStore{
		users:              make(map[string]domain.User),
		logins:             make(map[string]domain.Login),
		channels:           make(map[string]domain.CommunicationChannel),
		deletedEnrollments: make(map[string]string),
	}
}

type memSnapshot struct {
	users              map[string]domain.User
	logins             map[string]domain.Login
	channels           map[string]domain.CommunicationChannel
	deletedEnrollments map[string]string
}

func (s *memStore) snapshot() memSnapshot {
	return memSnapshot{
		users:              maps.Clone(s.users),
		logins:             maps.Clone(s.logins),
		channels:           maps.Clone(s.channels),
		deletedEnrollments: maps.Clone(s.deletedEnrollments),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.users = snap.users
	s.logins = snap.logins
	s.channels = snap.channels
	s.deletedEnrollments = snap.deletedEnrollments
}

func (s *memStore) scope(fn func(tx domain.IdentityTx) error) error {
	snap := s.snapshot()
	if err := fn(&memTx{store: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memStore) InChunk(ctx context.Context, fn func(tx domain.IdentityTx) error) error {
	s.chunks++
	if s.chunkErr != nil {
		return s.chunkErr
	}
	return s.scope(fn)
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%04d", prefix, s.seq)
}

func (s *memStore) addUser(u domain.User) domain.User {
	if u.ID == "" {
		u.ID = s.nextID("user")
	}
	s.users[u.ID] = u
	return u
}

func (s *memStore) addLogin(l domain.Login) domain.Login {
	if l.ID == "" {
		l.ID = s.nextID("login")
	}
	s.logins[l.ID] = l
	return l
}

func (s *memStore) addChannel(c domain.CommunicationChannel) domain.CommunicationChannel {
	if c.ID == "" {
		c.ID = s.nextID("channel")
	}
	s.channels[c.ID] = c
	return c
}

func (s *memStore) loginByUniqueID(uniqueID string) (domain.Login, bool) {
	for _, id := range slices.Sorted(maps.Keys(s.logins)) {
		if s.logins[id].UniqueID == uniqueID {
			return s.logins[id], true
		}
	}
	return domain.Login{}, false
}

type memTx struct {
	store *memStore
}

func (t *memTx) Nested(ctx context.Context, fn func(tx domain.IdentityTx) error) error {
	return t.store.scope(fn)
}

func (t *memTx) findLogin(match func(domain.Login) bool) *domain.Login {
	for _, id := range slices.Sorted(maps.Keys(t.store.logins)) {
		l := t.store.logins[id]
		if match(l) {
			return &l
		}
	}
	return nil
}

func (t *memTx) FindLoginByExternalUserID(ctx context.Context, accountID, externalUserID string) (*domain.Login, error) {
	return t.findLogin(func(l domain.Login) bool {
		return l.AccountID == accountID && l.ExternalUserID == externalUserID
	}), nil
}

func (t *memTx) FindLoginByUniqueID(ctx context.Context, accountID, uniqueID string) (*domain.Login, error) {
	return t.findLogin(func(l domain.Login) bool {
		return l.AccountID == accountID && l.UniqueID == uniqueID
	}), nil
}

func (t *memTx) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	u, ok := t.store.users[userID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (t *memTx) GetChannel(ctx context.Context, channelID string) (*domain.CommunicationChannel, error) {
	c, ok := t.store.channels[channelID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (t *memTx) FindActiveChannel(ctx context.Context, path string, channelType domain.ChannelType) (*domain.CommunicationChannel, error) {
	for _, id := range slices.Sorted(maps.Keys(t.store.channels)) {
		c := t.store.channels[id]
		if c.Path == path && c.Type == channelType && c.WorkflowState == domain.ChannelActive {
			return &c, nil
		}
	}
	return nil, nil
}

func (t *memTx) SaveUser(ctx context.Context, u *domain.User) error {
	if f := t.store.saveUserErr; f != nil {
		if err := f(*u); err != nil {
			return fmt.Errorf("save user: %w", err)
		}
	}
	*u = t.store.addUser(*u)
	return nil
}

func (t *memTx) SaveLogin(ctx context.Context, l *domain.Login) error {
	if f := t.store.saveLoginErr; f != nil {
		if err := f(*l); err != nil {
			return fmt.Errorf("save login: %w", err)
		}
	}
	*l = t.store.addLogin(*l)
	return nil
}

func (t *memTx) SaveChannel(ctx context.Context, c *domain.CommunicationChannel) error {
	if f := t.store.saveChannelErr; f != nil {
		if err := f(*c); err != nil {
			return fmt.Errorf("save channel: %w", err)
		}
	}
	*c = t.store.addChannel(*c)
	return nil
}

func (t *memTx) DestroyChannel(ctx context.Context, channelID string) error {
	for id, l := range t.store.logins {
		if l.LinkedChannelID == channelID {
			l.LinkedChannelID = ""
			t.store.logins[id] = l
		}
	}
	delete(t.store.channels, channelID)
	return nil
}

func (t *memTx) DeleteEnrollments(ctx context.Context, userID, rootAccountID string) error {
	t.store.deletedEnrollments[userID] = rootAccountID
	return nil
}

type fakeHasher struct {
	hashErr error
}

func (h fakeHasher) Hash(plain string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return "hashed:" + plain, nil
}

func (h fakeHasher) Matches(hash, plain string) bool {
	return hash != "" && hash == "hashed:"+plain
}

type fakeBulk struct {
	added      []string
	addedRoot  string
	recomputed []string
	usersBatch []string
	loginBatch []string
	batchID    string
	err        error
}

func (f *fakeBulk) AddAccountAssociations(ctx context.Context, rootAccountID string, userIDs []string) error {
	f.addedRoot = rootAccountID
	f.added = append(f.added, userIDs...)
	return f.err
}

func (f *fakeBulk) RecomputeAccountAssociations(ctx context.Context, userIDs []string) error {
	f.recomputed = append(f.recomputed, userIDs...)
	return f.err
}

func (f *fakeBulk) StampUserBatch(ctx context.Context, batchID string, userIDs []string) error {
	f.batchID = batchID
	f.usersBatch = append(f.usersBatch, userIDs...)
	return f.err
}

func (f *fakeBulk) StampLoginBatch(ctx context.Context, batchID string, loginIDs []string) error {
	f.batchID = batchID
	f.loginBatch = append(f.loginBatch, loginIDs...)
	return f.err
}

type staticLimits struct {
	limits domain.ChunkLimits
	calls  int
}

func (s *staticLimits) ChunkLimits(ctx context.Context) domain.ChunkLimits {
	s.calls++
	return s.limits
}

// sliceSource replays records; failAt makes the stream return an error
// instead of the record at that index.
type sliceSource struct {
	records []domain.ImportRecord
	openErr error
	failAt  int
	opens   int
}

func newSliceSource(records ...domain.ImportRecord) *sliceSource {
	for i := range records {
		if records[i].Line == 0 {
			records[i].Line = i + 2
		}
	}
	return &sliceSource{records: records, failAt: -1}
}

func (s *sliceSource) Open(ctx context.Context) (domain.RecordStream, error) {
	s.opens++
	if s.openErr != nil {
		return nil, s.openErr
	}
	return &sliceStream{records: s.records, failAt: s.failAt}, nil
}

type sliceStream struct {
	records []domain.ImportRecord
	pos     int
	failAt  int
}

func (s *sliceStream) Next(ctx context.Context) (domain.ImportRecord, error) {
	if s.pos == s.failAt {
		return domain.ImportRecord{}, errors.New("broken row")
	}
	if s.pos >= len(s.records) {
		return domain.ImportRecord{}, io.EOF
	}
	rec := s.records[s.pos]
	s.pos++
	return rec, nil
}

func (s *sliceStream) Close() error {
	return nil
}

// stepClock advances by step on every call.
type stepClock struct {
	now  time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

func activeRecord(userID, loginID, first, last, email string) domain.ImportRecord {
	return domain.ImportRecord{
		ExternalUserID: userID,
		LoginID:        loginID,
		FirstName:      first,
		LastName:       last,
		Email:          email,
		Status:         "active",
	}
}
