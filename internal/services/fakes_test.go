package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gatherhub/internal/domain"
)

// fixedClock returns a preset time so admission and expiry decisions are
// deterministic in tests.
type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

// fakeTeamRepo is an in-memory TeamRepository enforcing slug uniqueness like
// the real store.
type fakeTeamRepo struct {
	mu     sync.Mutex
	teams  map[string]*domain.Team
	nextID int

	featured          []*domain.FeaturedTeam
	lastFeaturedLimit int
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{teams: map[string]*domain.Team{}}
}

func (f *fakeTeamRepo) Create(_ context.Context, team *domain.Team) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.teams {
		if t.Slug == team.Slug {
			return domain.ErrConflict
		}
	}
	f.nextID++
	team.ID = fmt.Sprintf("team-%d", f.nextID)
	cp := *team
	f.teams[team.ID] = &cp
	return nil
}

func (f *fakeTeamRepo) GetByID(_ context.Context, id string) (*domain.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.teams[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTeamRepo) GetBySlug(_ context.Context, slug string) (*domain.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.teams {
		if t.Slug == slug {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeTeamRepo) Update(_ context.Context, team *domain.Team) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.teams[team.ID]; !ok {
		return domain.ErrNotFound
	}
	for _, t := range f.teams {
		if t.ID != team.ID && t.Slug == team.Slug {
			return domain.ErrConflict
		}
	}
	cp := *team
	f.teams[team.ID] = &cp
	return nil
}

func (f *fakeTeamRepo) ListFeatured(_ context.Context, _, _ time.Time, limit int) ([]*domain.FeaturedTeam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFeaturedLimit = limit
	out := f.featured
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeTeamRepo) ExistsBySlug(_ context.Context, slug string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.teams {
		if t.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

// fakeTeamMemberRepo is an in-memory TeamMemberRepository.
type fakeTeamMemberRepo struct {
	mu      sync.Mutex
	members map[string]*domain.TeamMember // key teamID:userID
}

func newFakeTeamMemberRepo() *fakeTeamMemberRepo {
	return &fakeTeamMemberRepo{members: map[string]*domain.TeamMember{}}
}

func memberKey(teamID, userID string) string { return teamID + ":" + userID }

func (f *fakeTeamMemberRepo) Add(_ context.Context, teamID, userID string, role domain.Role, joinedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := memberKey(teamID, userID)
	if _, ok := f.members[key]; ok {
		return domain.ErrAlreadyMember
	}
	f.members[key] = &domain.TeamMember{TeamID: teamID, UserID: userID, Role: role, JoinedAt: joinedAt}
	return nil
}

func (f *fakeTeamMemberRepo) GetRole(_ context.Context, teamID, userID string) (domain.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[memberKey(teamID, userID)]
	if !ok {
		return "", domain.ErrNotFound
	}
	return m.Role, nil
}

func (f *fakeTeamMemberRepo) UpdateRole(_ context.Context, teamID, userID string, role domain.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[memberKey(teamID, userID)]
	if !ok {
		return domain.ErrNotFound
	}
	m.Role = role
	return nil
}

func (f *fakeTeamMemberRepo) Remove(_ context.Context, teamID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := memberKey(teamID, userID)
	if _, ok := f.members[key]; !ok {
		return domain.ErrNotFound
	}
	delete(f.members, key)
	return nil
}

func (f *fakeTeamMemberRepo) ListByTeamID(_ context.Context, teamID string) ([]*domain.TeamMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.TeamMember
	for _, m := range f.members {
		if m.TeamID == teamID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (f *fakeTeamMemberRepo) ListByUserID(_ context.Context, userID string) ([]*domain.TeamMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.TeamMember
	for _, m := range f.members {
		if m.UserID == userID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamID < out[j].TeamID })
	return out, nil
}

func (f *fakeTeamMemberRepo) CountByTeamAndRole(_ context.Context, teamID string, role domain.Role) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.members {
		if m.TeamID == teamID && m.Role == role {
			n++
		}
	}
	return n, nil
}

// fakeEventRepo is an in-memory EventRepository enforcing the (team, slug)
// unique constraint.
type fakeEventRepo struct {
	mu     sync.Mutex
	events map[string]*domain.Event
	nextID int
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: map[string]*domain.Event{}}
}

func (f *fakeEventRepo) Create(_ context.Context, event *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e.TeamID == event.TeamID && e.Slug == event.Slug {
			return domain.ErrConflict
		}
	}
	f.nextID++
	event.ID = fmt.Sprintf("event-%d", f.nextID)
	cp := *event
	f.events[event.ID] = &cp
	return nil
}

func (f *fakeEventRepo) GetByID(_ context.Context, id string) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEventRepo) GetByTeamAndSlug(_ context.Context, teamID, slug string) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e.TeamID == teamID && e.Slug == slug {
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) Update(_ context.Context, event *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[event.ID]; !ok {
		return domain.ErrNotFound
	}
	for _, e := range f.events {
		if e.ID != event.ID && e.TeamID == event.TeamID && e.Slug == event.Slug {
			return domain.ErrConflict
		}
	}
	cp := *event
	f.events[event.ID] = &cp
	return nil
}

func (f *fakeEventRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.events, id)
	return nil
}

func (f *fakeEventRepo) ListByTeamID(_ context.Context, teamID string, status *domain.EventStatus) ([]*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Event
	for _, e := range f.events {
		if e.TeamID != teamID {
			continue
		}
		if status != nil && e.Status != *status {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeEventRepo) ListPublished(_ context.Context, search string, limit int) ([]*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Event
	for _, e := range f.events {
		if e.Status != domain.EventPublished {
			continue
		}
		if search != "" && !eventMatches(e, search) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func eventMatches(e *domain.Event, search string) bool {
	search = strings.ToLower(search)
	for _, field := range []string{e.Title, e.Description, e.Location.Venue, e.Location.Address} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

func (f *fakeEventRepo) ExistsByTeamAndSlug(_ context.Context, teamID, slug, excludeID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e.TeamID == teamID && e.Slug == slug && e.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

// fakeRSVPRepo is an in-memory RSVPRepository. It assigns ids and a
// monotonically increasing seq, enforces the (event, email) unique
// constraint, and lists in (created_at, seq) order like the real store.
type fakeRSVPRepo struct {
	mu      sync.Mutex
	rsvps   []*domain.RSVP
	nextID  int
	nextSeq int64
}

func newFakeRSVPRepo() *fakeRSVPRepo {
	return &fakeRSVPRepo{}
}

func (f *fakeRSVPRepo) Create(_ context.Context, r *domain.RSVP) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.rsvps {
		if existing.EventID == r.EventID && existing.AttendeeEmail == r.AttendeeEmail {
			return domain.ErrDuplicateRSVP
		}
	}
	f.nextID++
	f.nextSeq++
	r.ID = fmt.Sprintf("rsvp-%d", f.nextID)
	r.Seq = f.nextSeq
	cp := *r
	f.rsvps = append(f.rsvps, &cp)
	return nil
}

func (f *fakeRSVPRepo) GetByID(_ context.Context, id string) (*domain.RSVP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rsvps {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRSVPRepo) GetByEventAndEmail(_ context.Context, eventID, email string) (*domain.RSVP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rsvps {
		if r.EventID == eventID && r.AttendeeEmail == email {
			cp := *r
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRSVPRepo) listSorted(eventID string) []*domain.RSVP {
	var out []*domain.RSVP
	for _, r := range f.rsvps {
		if r.EventID == eventID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

func (f *fakeRSVPRepo) ListByEvent(_ context.Context, eventID string) ([]*domain.RSVP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listSorted(eventID), nil
}

func (f *fakeRSVPRepo) ListByEventAndStatus(_ context.Context, eventID string, status domain.RSVPStatus) ([]*domain.RSVP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.RSVP
	for _, r := range f.listSorted(eventID) {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRSVPRepo) UpdateStatus(_ context.Context, id string, status domain.RSVPStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rsvps {
		if r.ID == id {
			r.Status = status
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeRSVPRepo) UpdateDetails(_ context.Context, id string, name, message *string) (*domain.RSVP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rsvps {
		if r.ID == id {
			if name != nil {
				r.AttendeeName = *name
			}
			if message != nil {
				r.Message = *message
			}
			cp := *r
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRSVPRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.rsvps {
		if r.ID == id {
			f.rsvps = append(f.rsvps[:i], f.rsvps[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeRSVPRepo) DeleteByEventID(_ context.Context, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.rsvps[:0]
	for _, r := range f.rsvps {
		if r.EventID != eventID {
			kept = append(kept, r)
		}
	}
	f.rsvps = kept
	return nil
}

// fakeInviteRepo is an in-memory InviteRepository. Codes collide only with
// live invites; an expired row holding the code is reclaimed on insert.
type fakeInviteRepo struct {
	mu      sync.Mutex
	invites map[string]*domain.Invite
	nextID  int
}

func newFakeInviteRepo() *fakeInviteRepo {
	return &fakeInviteRepo{invites: map[string]*domain.Invite{}}
}

func (f *fakeInviteRepo) Create(_ context.Context, inv *domain.Invite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, existing := range f.invites {
		if existing.Code != inv.Code {
			continue
		}
		if existing.ExpiresAt.After(inv.CreatedAt) {
			return domain.ErrConflict
		}
		delete(f.invites, id)
	}
	f.nextID++
	inv.ID = fmt.Sprintf("invite-%d", f.nextID)
	cp := *inv
	f.invites[inv.ID] = &cp
	return nil
}

func (f *fakeInviteRepo) GetByID(_ context.Context, id string) (*domain.Invite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invites[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeInviteRepo) GetByCode(_ context.Context, code string) (*domain.Invite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.invites {
		if inv.Code == code {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeInviteRepo) GetByTeamAndEmail(_ context.Context, teamID, email string) (*domain.Invite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.invites {
		if inv.TeamID == teamID && inv.Email == email {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeInviteRepo) ListByTeamID(_ context.Context, teamID string) ([]*domain.Invite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Invite
	for _, inv := range f.invites {
		if inv.TeamID == teamID {
			cp := *inv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeInviteRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.invites[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.invites, id)
	return nil
}

func (f *fakeInviteRepo) CodeInUse(_ context.Context, code string, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.invites {
		if inv.Code == code && inv.ExpiresAt.After(now) {
			return true, nil
		}
	}
	return false, nil
}

// fakeUserRepo is an in-memory UserRepository enforcing email uniqueness.
type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*domain.User{}}
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return domain.ErrDuplicateEmail
		}
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

// recordingEmailService counts outgoing emails per kind.
type recordingEmailService struct {
	mu         sync.Mutex
	invites    []*domain.TeamInviteEmailData
	confirmed  []*domain.RSVPEmailData
	waitlisted []*domain.RSVPEmailData
	promotions []*domain.RSVPEmailData
	err        error
}

func (r *recordingEmailService) SendTeamInvite(_ context.Context, data *domain.TeamInviteEmailData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.invites = append(r.invites, data)
	return nil
}

func (r *recordingEmailService) SendRSVPConfirmed(_ context.Context, data *domain.RSVPEmailData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.confirmed = append(r.confirmed, data)
	return nil
}

func (r *recordingEmailService) SendRSVPWaitlisted(_ context.Context, data *domain.RSVPEmailData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.waitlisted = append(r.waitlisted, data)
	return nil
}

func (r *recordingEmailService) SendWaitlistPromotion(_ context.Context, data *domain.RSVPEmailData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.promotions = append(r.promotions, data)
	return nil
}
