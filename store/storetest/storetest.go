// Package storetest provides an in-memory store.Store for handler tests.
package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"crates/models"
	"crates/store"
)

type ratingKey struct {
	user         uuid.UUID
	name, artist string
}

type pairKey struct{ a, b uuid.UUID }

type listenKey struct {
	user          uuid.UUID
	album, artist string
}

// Store is an in-memory implementation of store.Store. All methods are safe
// for concurrent use.
type Store struct {
	mu        sync.Mutex
	profiles  map[uuid.UUID]models.Profile
	lists     map[uuid.UUID]models.List
	items     map[uuid.UUID]models.ListItem
	follows   map[pairKey]bool
	likes     map[pairKey]bool
	ratings   map[string]map[ratingKey]int
	favorites []models.Favorite
	listen    map[listenKey]models.ListenEntry
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		profiles: map[uuid.UUID]models.Profile{},
		lists:    map[uuid.UUID]models.List{},
		items:    map[uuid.UUID]models.ListItem{},
		follows:  map[pairKey]bool{},
		likes:    map[pairKey]bool{},
		ratings: map[string]map[ratingKey]int{
			store.KindSong:  {},
			store.KindAlbum: {},
		},
		listen: map[listenKey]models.ListenEntry{},
	}
}

var _ store.Store = (*Store)(nil)

func (s *Store) CreateProfile(_ context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.profiles {
		if existing.Username == p.Username || existing.Email == p.Email {
			return store.ErrDuplicate
		}
	}
	s.profiles[p.ID] = *p
	return nil
}

func (s *Store) ProfileByID(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (s *Store) ProfileByEmail(_ context.Context, email string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.profiles {
		if p.Email == email {
			out := p
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ProfileByUsername(_ context.Context, username string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.profiles {
		if p.Username == username {
			out := p
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateProfile(_ context.Context, id uuid.UUID, username, email, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return store.ErrNotFound
	}
	for otherID, other := range s.profiles {
		if otherID != id && (other.Username == username || other.Email == email) {
			return store.ErrDuplicate
		}
	}
	p.Username = username
	p.Email = email
	if passwordHash != "" {
		p.PasswordHash = passwordHash
	}
	s.profiles[id] = p
	return nil
}

func (s *Store) SearchProfiles(_ context.Context, pattern string, limit int) ([]models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Profile
	for _, p := range s.profiles {
		if pattern == "" || strings.Contains(strings.ToLower(p.Username), strings.ToLower(pattern)) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) SaveSpotifyCredentials(_ context.Context, id uuid.UUID, access, refresh string, expiry *time.Time, spotifyUserID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return store.ErrNotFound
	}
	p.SpotifyAccessToken = access
	p.SpotifyRefreshToken = refresh
	p.SpotifyTokenExpiry = expiry
	p.SpotifyUserID = spotifyUserID
	s.profiles[id] = p
	return nil
}

func (s *Store) ClearSpotifyCredentials(_ context.Context, id uuid.UUID) error {
	return s.SaveSpotifyCredentials(context.Background(), id, "", "", nil, "")
}

func (s *Store) CreateList(_ context.Context, l *models.List) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[l.ID] = *l
	return nil
}

func (s *Store) ListOwned(_ context.Context, id, owner uuid.UUID) (*models.List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lists[id]
	if !ok || l.UserID != owner {
		return nil, store.ErrNotFound
	}
	return &l, nil
}

func (s *Store) ListVisible(_ context.Context, id, viewer uuid.UUID) (*models.List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lists[id]
	if !ok || (!l.IsPublic && l.UserID != viewer) {
		return nil, store.ErrNotFound
	}
	return &l, nil
}

func (s *Store) listsWhere(keep func(models.List) bool) []models.List {
	var out []models.List
	for _, l := range s.lists {
		if keep(l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Store) ListsByOwner(_ context.Context, owner uuid.UUID) ([]models.List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listsWhere(func(l models.List) bool { return l.UserID == owner }), nil
}

func (s *Store) PublicListsByOwner(_ context.Context, owner uuid.UUID) ([]models.List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listsWhere(func(l models.List) bool { return l.UserID == owner && l.IsPublic }), nil
}

func (s *Store) PublicOverviews(_ context.Context, limit int) ([]models.ListOverview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lists := s.listsWhere(func(l models.List) bool { return l.IsPublic })
	if len(lists) > limit {
		lists = lists[:limit]
	}
	var out []models.ListOverview
	for _, l := range lists {
		out = append(out, models.ListOverview{List: l, OwnerUsername: s.profiles[l.UserID].Username})
	}
	return out, nil
}

func (s *Store) UpdateListSettings(_ context.Context, id uuid.UUID, title, description string, isRanked, isPublic bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lists[id]
	if !ok {
		return store.ErrNotFound
	}
	l.Title = title
	l.Description = description
	l.IsRanked = isRanked
	l.IsPublic = isPublic
	s.lists[id] = l
	return nil
}

func (s *Store) DeleteList(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lists[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.lists, id)
	return nil
}

func (s *Store) DeleteListItems(_ context.Context, listID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, it := range s.items {
		if it.ListID == listID {
			delete(s.items, id)
		}
	}
	return nil
}

func (s *Store) Items(_ context.Context, listID uuid.UUID) ([]models.ListItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ListItem
	for _, it := range s.items {
		if it.ListID == listID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (s *Store) MaxPosition(_ context.Context, listID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	max := 0
	for _, it := range s.items {
		if it.ListID == listID && it.Position > max {
			max = it.Position
		}
	}
	return max, nil
}

func (s *Store) InsertItem(_ context.Context, it *models.ListItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[it.ID] = *it
	return nil
}

func (s *Store) DeleteItem(_ context.Context, listID, itemID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[itemID]
	if !ok || it.ListID != listID {
		return store.ErrNotFound
	}
	delete(s.items, itemID)
	return nil
}

func (s *Store) UpdateItemPosition(_ context.Context, listID, itemID uuid.UUID, position int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[itemID]
	if !ok || it.ListID != listID {
		return store.ErrNotFound
	}
	it.Position = position
	s.items[itemID] = it
	return nil
}

func (s *Store) Follow(_ context.Context, follower, following uuid.UUID) error {
	if follower == following {
		return store.ErrSelfFollow
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.follows[pairKey{follower, following}] = true
	return nil
}

func (s *Store) Unfollow(_ context.Context, follower, following uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.follows, pairKey{follower, following})
	return nil
}

func (s *Store) IsFollowing(_ context.Context, follower, following uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.follows[pairKey{follower, following}], nil
}

func (s *Store) FollowCounts(_ context.Context, id uuid.UUID) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var followers, following int
	for k := range s.follows {
		if k.b == id {
			followers++
		}
		if k.a == id {
			following++
		}
	}
	return followers, following, nil
}

func (s *Store) LikeList(_ context.Context, userID, listID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.likes[pairKey{userID, listID}] = true
	return nil
}

func (s *Store) UnlikeList(_ context.Context, userID, listID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.likes, pairKey{userID, listID})
	return nil
}

func (s *Store) HasLiked(_ context.Context, userID, listID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.likes[pairKey{userID, listID}], nil
}

func (s *Store) LikeCount(_ context.Context, listID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for k := range s.likes {
		if k.b == listID {
			count++
		}
	}
	return count, nil
}

// FollowRows reports the number of stored follow relations, used by
// idempotence tests.
func (s *Store) FollowRows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.follows)
}

// LikeRows reports the number of stored like relations.
func (s *Store) LikeRows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.likes)
}

func (s *Store) SaveRating(_ context.Context, kind string, userID uuid.UUID, name, artist string, rating int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	table, ok := s.ratings[kind]
	if !ok {
		return store.ErrNotFound
	}
	key := ratingKey{userID, name, artist}
	if rating == 0 {
		delete(table, key)
		return nil
	}
	table[key] = rating
	return nil
}

func (s *Store) RatingFor(_ context.Context, kind string, userID uuid.UUID, name, artist string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ratings[kind][ratingKey{userID, name, artist}], nil
}

func (s *Store) RatingSummary(_ context.Context, kind, name, artist string) (float64, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum, count := 0, 0
	for k, r := range s.ratings[kind] {
		if k.name == name && k.artist == artist {
			sum += r
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

// RatingRows reports the number of stored ratings of a kind, used by
// tombstone tests.
func (s *Store) RatingRows(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ratings[kind])
}

func (s *Store) ReplaceFavorites(_ context.Context, userID uuid.UUID, favType string, favs []models.Favorite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.favorites[:0]
	for _, f := range s.favorites {
		if f.UserID != userID || f.Type != favType {
			kept = append(kept, f)
		}
	}
	s.favorites = kept
	for _, f := range favs {
		f.UserID = userID
		f.Type = favType
		s.favorites = append(s.favorites, f)
	}
	return nil
}

func (s *Store) Favorites(_ context.Context, userID uuid.UUID) ([]models.Favorite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Favorite
	for _, f := range s.favorites {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Position < out[j].Position
	})
	return out, nil
}

func (s *Store) AddListenEntry(_ context.Context, e *models.ListenEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := listenKey{e.UserID, e.AlbumName, e.Artist}
	if _, ok := s.listen[key]; ok {
		return nil
	}
	if e.AddedAt.IsZero() {
		e.AddedAt = time.Now()
	}
	s.listen[key] = *e
	return nil
}

func (s *Store) RemoveListenEntry(_ context.Context, userID uuid.UUID, albumName, artist string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.listen, listenKey{userID, albumName, artist})
	return nil
}

func (s *Store) ListenList(_ context.Context, userID uuid.UUID) ([]models.ListenEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ListenEntry
	for k, e := range s.listen {
		if k.user == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AddedAt.After(out[j].AddedAt) })
	return out, nil
}
