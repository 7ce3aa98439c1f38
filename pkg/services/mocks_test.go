package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yakmate-inc/yakmate-engine/pkg/apperrors"
	"github.com/yakmate-inc/yakmate-engine/pkg/models"
	"github.com/yakmate-inc/yakmate-engine/pkg/repositories"
)

// In-memory repository fakes shared by the service tests.

type mockListingRepo struct {
	mu       sync.Mutex
	listings map[uuid.UUID]*models.AnonymousListing
}

func newMockListingRepo() *mockListingRepo {
	return &mockListingRepo{listings: make(map[uuid.UUID]*models.AnonymousListing)}
}

func (m *mockListingRepo) add(l *models.AnonymousListing) *models.AnonymousListing {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	m.listings[l.ID] = l
	return l
}

func (m *mockListingRepo) Create(_ context.Context, listing *models.AnonymousListing) error {
	m.add(listing)
	listing.CreatedAt = time.Now()
	return nil
}

func (m *mockListingRepo) Update(_ context.Context, listing *models.AnonymousListing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.listings[listing.ID]; !ok {
		return apperrors.ErrNotFound
	}
	m.listings[listing.ID] = listing
	return nil
}

func (m *mockListingRepo) UpdateStatus(_ context.Context, listingID uuid.UUID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[listingID]
	if !ok {
		return apperrors.ErrNotFound
	}
	l.Status = status
	return nil
}

func (m *mockListingRepo) Delete(_ context.Context, listingID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.listings, listingID)
	return nil
}

func (m *mockListingRepo) GetByID(_ context.Context, listingID uuid.UUID) (*models.AnonymousListing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listings[listingID], nil
}

func (m *mockListingRepo) Search(_ context.Context, _ repositories.ListingFilter, limit, offset int) ([]*models.AnonymousListing, int, error) {
	all, _ := m.ListActive(context.Background())
	total := len(all)
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func (m *mockListingRepo) ListActive(_ context.Context) ([]*models.AnonymousListing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.AnonymousListing
	for _, l := range m.listings {
		if l.Status == models.ListingStatusActive {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockListingRepo) GetFirstActiveByOwner(_ context.Context, ownerID uuid.UUID) (*models.AnonymousListing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.listings {
		if l.OwnerID == ownerID && l.Status == models.ListingStatusActive {
			return l, nil
		}
	}
	return nil, nil
}

func (m *mockListingRepo) ExpireStale(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var expired int64
	for _, l := range m.listings {
		if l.Status == models.ListingStatusActive && !l.ExpiresAt.After(now) {
			l.Status = models.ListingStatusExpired
			expired++
		}
	}
	return expired, nil
}

var _ repositories.ListingRepository = (*mockListingRepo)(nil)

type mockProfileRepo struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*models.PharmacistProfile
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{profiles: make(map[uuid.UUID]*models.PharmacistProfile)}
}

func (m *mockProfileRepo) add(p *models.PharmacistProfile) *models.PharmacistProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.profiles[p.ID] = p
	return p
}

func (m *mockProfileRepo) Create(_ context.Context, profile *models.PharmacistProfile) error {
	m.add(profile)
	profile.CreatedAt = time.Now()
	return nil
}

func (m *mockProfileRepo) Update(_ context.Context, profile *models.PharmacistProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[profile.ID]; !ok {
		return apperrors.ErrNotFound
	}
	m.profiles[profile.ID] = profile
	return nil
}

func (m *mockProfileRepo) Deactivate(_ context.Context, profileID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[profileID]
	if !ok {
		return apperrors.ErrNotFound
	}
	p.IsActive = false
	return nil
}

func (m *mockProfileRepo) GetByID(_ context.Context, profileID uuid.UUID) (*models.PharmacistProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profiles[profileID], nil
}

func (m *mockProfileRepo) GetActiveByUser(_ context.Context, userID uuid.UUID) (*models.PharmacistProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.UserID == userID && p.IsActive {
			return p, nil
		}
	}
	return nil, nil
}

func (m *mockProfileRepo) Search(_ context.Context, _ repositories.ProfileFilter, limit, offset int) ([]*models.PharmacistProfile, int, error) {
	all, _ := m.ListActive(context.Background())
	total := len(all)
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func (m *mockProfileRepo) ListActive(_ context.Context) ([]*models.PharmacistProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.PharmacistProfile
	for _, p := range m.profiles {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

var _ repositories.ProfileRepository = (*mockProfileRepo)(nil)

type mockInterestRepo struct {
	mu        sync.Mutex
	interests []*models.Interest
}

func newMockInterestRepo() *mockInterestRepo {
	return &mockInterestRepo{}
}

func (m *mockInterestRepo) Create(_ context.Context, interest *models.Interest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, in := range m.interests {
		if in.ListingID == interest.ListingID && in.ProfileID == interest.ProfileID && in.Direction == interest.Direction {
			return apperrors.ErrConflict
		}
	}
	interest.ID = uuid.New()
	interest.CreatedAt = time.Now()
	m.interests = append(m.interests, interest)
	return nil
}

func (m *mockInterestRepo) Delete(_ context.Context, interestID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, in := range m.interests {
		if in.ID == interestID {
			m.interests = append(m.interests[:i], m.interests[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (m *mockInterestRepo) GetByID(_ context.Context, interestID uuid.UUID) (*models.Interest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, in := range m.interests {
		if in.ID == interestID {
			return in, nil
		}
	}
	return nil, nil
}

func (m *mockInterestRepo) GetByTriple(_ context.Context, listingID, profileID uuid.UUID, direction string) (*models.Interest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, in := range m.interests {
		if in.ListingID == listingID && in.ProfileID == profileID && in.Direction == direction {
			return in, nil
		}
	}
	return nil, nil
}

func (m *mockInterestRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*models.Interest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Interest
	for _, in := range m.interests {
		if in.UserID == userID {
			out = append(out, in)
		}
	}
	return out, nil
}

func (m *mockInterestRepo) ListReceivedByListing(_ context.Context, listingID uuid.UUID) ([]*models.Interest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Interest
	for _, in := range m.interests {
		if in.ListingID == listingID && in.Direction == models.InterestPharmacistToListing {
			out = append(out, in)
		}
	}
	return out, nil
}

func (m *mockInterestRepo) ListReceivedByProfile(_ context.Context, profileID uuid.UUID) ([]*models.Interest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Interest
	for _, in := range m.interests {
		if in.ProfileID == profileID && in.Direction == models.InterestListingToPharmacist {
			out = append(out, in)
		}
	}
	return out, nil
}

var _ repositories.InterestRepository = (*mockInterestRepo)(nil)

// mockMatchRepo resolves listing and profile owners through the sibling
// fakes, mirroring the join the real ListByUser query performs.
type mockMatchRepo struct {
	mu       sync.Mutex
	matches  map[uuid.UUID]*models.Match
	listings *mockListingRepo
	profiles *mockProfileRepo
}

func newMockMatchRepo(listings *mockListingRepo, profiles *mockProfileRepo) *mockMatchRepo {
	return &mockMatchRepo{
		matches:  make(map[uuid.UUID]*models.Match),
		listings: listings,
		profiles: profiles,
	}
}

func (m *mockMatchRepo) Create(_ context.Context, match *models.Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.matches {
		if existing.ListingID == match.ListingID && existing.ProfileID == match.ProfileID {
			return apperrors.ErrConflict
		}
	}
	match.ID = uuid.New()
	match.CreatedAt = time.Now()
	m.matches[match.ID] = match
	return nil
}

func (m *mockMatchRepo) GetByID(_ context.Context, matchID uuid.UUID) (*models.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matches[matchID], nil
}

func (m *mockMatchRepo) GetByPair(_ context.Context, listingID, profileID uuid.UUID) (*models.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, match := range m.matches {
		if match.ListingID == listingID && match.ProfileID == profileID {
			return match, nil
		}
	}
	return nil, nil
}

func (m *mockMatchRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Match, error) {
	m.mu.Lock()
	matches := make([]*models.Match, 0, len(m.matches))
	for _, match := range m.matches {
		matches = append(matches, match)
	}
	m.mu.Unlock()

	var out []*models.Match
	for _, match := range matches {
		listing, _ := m.listings.GetByID(ctx, match.ListingID)
		profile, _ := m.profiles.GetByID(ctx, match.ProfileID)
		if listing == nil || profile == nil {
			continue
		}
		if listing.OwnerID == userID || profile.UserID == userID {
			out = append(out, match)
		}
	}
	return out, nil
}

func (m *mockMatchRepo) UpdateStatus(_ context.Context, match *models.Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.matches[match.ID]; !ok {
		return apperrors.ErrNotFound
	}
	m.matches[match.ID] = match
	return nil
}

func (m *mockMatchRepo) MarkFirstMessage(_ context.Context, matchID uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	match, ok := m.matches[matchID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if match.FirstMessageAt == nil {
		match.FirstMessageAt = &at
		match.Status = models.MatchStatusChatting
	}
	return nil
}

var _ repositories.MatchRepository = (*mockMatchRepo)(nil)

type mockMessageRepo struct {
	mu       sync.Mutex
	messages []*models.MatchMessage
}

func newMockMessageRepo() *mockMessageRepo {
	return &mockMessageRepo{}
}

func (m *mockMessageRepo) Create(_ context.Context, message *models.MatchMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	message.ID = uuid.New()
	message.CreatedAt = time.Now()
	m.messages = append(m.messages, message)
	return nil
}

func (m *mockMessageRepo) ListByMatch(_ context.Context, matchID uuid.UUID, limit, offset int) ([]*models.MatchMessage, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*models.MatchMessage
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].MatchID == matchID {
			all = append(all, m.messages[i])
		}
	}
	total := len(all)
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func (m *mockMessageRepo) CountUnread(_ context.Context, matchID, viewerID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, msg := range m.messages {
		if msg.MatchID == matchID && msg.SenderID != viewerID && !msg.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *mockMessageRepo) MarkRead(_ context.Context, matchID, viewerID uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg.MatchID == matchID && msg.SenderID != viewerID && !msg.IsRead {
			msg.IsRead = true
			readAt := at
			msg.ReadAt = &readAt
		}
	}
	return nil
}

var _ repositories.MessageRepository = (*mockMessageRepo)(nil)

type mockDetectionRepo struct {
	mu   sync.Mutex
	logs []*models.ContactDetectionLog
}

func newMockDetectionRepo() *mockDetectionRepo {
	return &mockDetectionRepo{}
}

func (m *mockDetectionRepo) Create(_ context.Context, log *models.ContactDetectionLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	log.ID = uuid.New()
	log.CreatedAt = time.Now()
	m.logs = append(m.logs, log)
	return nil
}

func (m *mockDetectionRepo) CountByUser(_ context.Context, userID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	max := 0
	for _, l := range m.logs {
		if l.UserID == userID && l.ViolationCount > max {
			max = l.ViolationCount
		}
	}
	return max, nil
}

func (m *mockDetectionRepo) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]*models.ContactDetectionLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ContactDetectionLog
	for i := len(m.logs) - 1; i >= 0 && len(out) < limit; i-- {
		if m.logs[i].UserID == userID {
			out = append(out, m.logs[i])
		}
	}
	return out, nil
}

var _ repositories.DetectionRepository = (*mockDetectionRepo)(nil)

type mockGrantRepo struct {
	mu     sync.Mutex
	grants []*models.AccessGrant
}

func newMockGrantRepo() *mockGrantRepo {
	return &mockGrantRepo{}
}

func (m *mockGrantRepo) add(g *models.AccessGrant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	m.grants = append(m.grants, g)
}

func (m *mockGrantRepo) GetForListing(_ context.Context, listingID, userID uuid.UUID) (*models.AccessGrant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for i := len(m.grants) - 1; i >= 0; i-- {
		g := m.grants[i]
		if g.ListingID == listingID && g.UserID == userID {
			if g.ExpiresAt != nil && !g.ExpiresAt.After(now) {
				continue
			}
			return g, nil
		}
	}
	return nil, nil
}

var _ repositories.GrantRepository = (*mockGrantRepo)(nil)

// recordingNotifier captures raised events for assertions.
type recordingNotifier struct {
	mu              sync.Mutex
	created         []*models.Match
	statusChanged   []*models.Match
	messages        []*models.MatchMessage
	contactWarnings []string
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{}
}

func (n *recordingNotifier) MatchCreated(_ context.Context, match *models.Match) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, match)
}

func (n *recordingNotifier) MatchStatusChanged(_ context.Context, match *models.Match) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statusChanged = append(n.statusChanged, match)
}

func (n *recordingNotifier) MessageReceived(_ context.Context, _ *models.Match, message *models.MatchMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) ContactWarning(_ context.Context, _ string, action string, _ int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.contactWarnings = append(n.contactWarnings, action)
}

var _ Notifier = (*recordingNotifier)(nil)
