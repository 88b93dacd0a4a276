package resource

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/hitoshi/folio/internal/model"
	"github.com/hitoshi/folio/internal/procedure"
)

// --- テスト用のインメモリ写真ストア ---

type memPhotoStore struct {
	nextID  int64
	records map[int64]model.Photo
	now     time.Time

	// ignoreFilter がtrueの場合、PublishedOnlyを無視して全件返す
	ignoreFilter bool
	// failWith が設定されている場合、全操作がこのエラーを返す
	failWith error

	lastFilter model.ListFilter
	creates    int
	updates    int
	deletes    int
}

func newMemPhotoStore() *memPhotoStore {
	return &memPhotoStore{
		nextID:  1,
		records: make(map[int64]model.Photo),
		now:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func (s *memPhotoStore) seed(p model.Photo) {
	p.ID = s.nextID
	s.nextID++
	s.records[p.ID] = p
}

func (s *memPhotoStore) List(ctx context.Context, filter model.ListFilter) ([]model.Photo, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	s.lastFilter = filter

	var out []model.Photo
	for _, p := range s.records {
		if filter.PublishedOnly && !p.Published && !s.ignoreFilter {
			continue
		}
		if filter.Featured != nil && p.Featured != *filter.Featured {
			continue
		}
		if filter.Tag != "" && !slices.Contains(model.SplitTags(p.Tags), filter.Tag) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *memPhotoStore) Get(ctx context.Context, id int64) (*model.Photo, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	p, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *memPhotoStore) Create(ctx context.Context, in PhotoCreateInput) (int64, error) {
	if s.failWith != nil {
		return 0, s.failWith
	}
	s.creates++
	p := model.Photo{
		Entry: model.Entry{
			ID:          s.nextID,
			Title:       in.Title,
			Description: in.Description,
			Tags:        in.Tags,
			Featured:    in.Featured,
			Published:   in.IsPublished(),
			SortOrder:   in.SortOrder,
			CreatedAt:   s.now,
			UpdatedAt:   s.now,
		},
		ImageURL: in.ImageURL,
		ImageKey: in.ImageKey,
		Location: in.Location,
		Camera:   in.Camera,
		Lens:     in.Lens,
		Settings: in.Settings,
	}
	s.records[p.ID] = p
	s.nextID++
	return p.ID, nil
}

func (s *memPhotoStore) Update(ctx context.Context, in PhotoUpdateInput) (bool, error) {
	if s.failWith != nil {
		return false, s.failWith
	}
	s.updates++
	p, ok := s.records[in.ID]
	if !ok {
		return false, nil
	}
	if in.Title != nil {
		p.Title = *in.Title
	}
	if in.Tags != nil {
		p.Tags = *in.Tags
	}
	if in.Published != nil {
		p.Published = *in.Published
	}
	if in.Featured != nil {
		p.Featured = *in.Featured
	}
	s.records[in.ID] = p
	return true, nil
}

func (s *memPhotoStore) Delete(ctx context.Context, id int64) (bool, error) {
	if s.failWith != nil {
		return false, s.failWith
	}
	s.deletes++
	if _, ok := s.records[id]; !ok {
		return false, nil
	}
	delete(s.records, id)
	return true, nil
}

var _ PhotoStore = (*memPhotoStore)(nil)

// --- 呼び出し元 ---

var (
	anonymousCall = &procedure.Call{Identity: procedure.Anonymous{}}
	memberCall    = &procedure.Call{Identity: procedure.User{User: model.User{ID: 2, Role: model.RoleUser}}}
	adminCall     = &procedure.Call{Identity: procedure.Admin{User: model.User{ID: 1, Role: model.RoleAdmin}}}
)

func ptr[T any](v T) *T { return &v }

func seededPhotos() *memPhotoStore {
	store := newMemPhotoStore()
	store.seed(model.Photo{Entry: model.Entry{Title: "Sunset", Tags: "travel,sea", Featured: true, Published: true, SortOrder: 0}, ImageURL: "https://cdn.example.com/1.jpg", ImageKey: "1.jpg"})
	store.seed(model.Photo{Entry: model.Entry{Title: "Draft", Tags: "travel", Published: false, SortOrder: 0}, ImageURL: "https://cdn.example.com/2.jpg", ImageKey: "2.jpg"})
	store.seed(model.Photo{Entry: model.Entry{Title: "Forest", Tags: "nature", Published: true, SortOrder: 1}, ImageURL: "https://cdn.example.com/3.jpg", ImageKey: "3.jpg"})
	return store
}

func titles(photos []model.Photo) []string {
	out := make([]string, 0, len(photos))
	for _, p := range photos {
		out = append(out, p.Title)
	}
	return out
}

// --- list ---

func TestRouter_List(t *testing.T) {
	tests := []struct {
		name      string
		call      *procedure.Call
		in        ListInput
		want      []string
		wantOnlyP bool
	}{
		{"anonymous sees published only", anonymousCall, ListInput{}, []string{"Sunset", "Forest"}, true},
		{"member sees published only", memberCall, ListInput{}, []string{"Sunset", "Forest"}, true},
		{"admin sees drafts", adminCall, ListInput{}, []string{"Draft", "Sunset", "Forest"}, false},
		{"featured filter", anonymousCall, ListInput{Featured: ptr(true)}, []string{"Sunset"}, true},
		{"tag filter", adminCall, ListInput{Tag: ptr("travel")}, []string{"Draft", "Sunset"}, false},
		{"limit", anonymousCall, ListInput{Limit: ptr(1)}, []string{"Sunset"}, true},
		{"no match", anonymousCall, ListInput{Tag: ptr("city")}, []string{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seededPhotos()
			r := NewPhotoRouter(store)

			got, err := r.List.Invoke(context.Background(), tt.call, tt.in)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if got == nil {
				t.Fatal("List() returned nil slice, want empty slice")
			}
			if diff := cmp.Diff(tt.want, titles(got)); diff != "" {
				t.Errorf("List() titles mismatch (-want +got):\n%s", diff)
			}
			if store.lastFilter.PublishedOnly != tt.wantOnlyP {
				t.Errorf("filter.PublishedOnly = %v, want %v", store.lastFilter.PublishedOnly, tt.wantOnlyP)
			}
		})
	}
}

// TestRouter_List_FiltersDraftsEvenIfStoreReturnsThem は永続化層が下書きを返してもRouterで除外されることを検証する。
func TestRouter_List_FiltersDraftsEvenIfStoreReturnsThem(t *testing.T) {
	store := seededPhotos()
	store.ignoreFilter = true
	r := NewPhotoRouter(store)

	got, err := r.List.Invoke(context.Background(), anonymousCall, ListInput{Limit: ptr(2)})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	for _, p := range got {
		if !p.Published {
			t.Errorf("unpublished photo %q returned to anonymous caller", p.Title)
		}
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

func TestRouter_List_InvalidInput(t *testing.T) {
	r := NewPhotoRouter(seededPhotos())

	tests := []struct {
		name string
		raw  string
	}{
		{"limit zero", `{"limit":0}`},
		{"limit too large", `{"limit":101}`},
		{"empty tag", `{"tag":""}`},
		{"unknown field", `{"published":false}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.List.Serve(context.Background(), adminCall, json.RawMessage(tt.raw))
			if model.KindOf(err) != model.KindInvalidInput {
				t.Errorf("KindOf(err) = %q, want %q", model.KindOf(err), model.KindInvalidInput)
			}
		})
	}
}

// --- get ---

func TestRouter_Get(t *testing.T) {
	tests := []struct {
		name     string
		call     *procedure.Call
		id       int64
		wantKind model.ErrorKind
	}{
		{"published for anonymous", anonymousCall, 1, ""},
		{"draft hidden from anonymous", anonymousCall, 2, model.KindNotFound},
		{"draft hidden from member", memberCall, 2, model.KindNotFound},
		{"draft visible to admin", adminCall, 2, ""},
		{"missing", adminCall, 999, model.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewPhotoRouter(seededPhotos())

			got, err := r.Get.Invoke(context.Background(), tt.call, IDInput{ID: tt.id})
			if tt.wantKind != "" {
				if model.KindOf(err) != tt.wantKind {
					t.Errorf("KindOf(err) = %q, want %q", model.KindOf(err), tt.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.ID != tt.id {
				t.Errorf("ID = %d, want %d", got.ID, tt.id)
			}
		})
	}
}

func TestRouter_Get_InvalidID(t *testing.T) {
	r := NewPhotoRouter(seededPhotos())

	for _, raw := range []string{`{}`, `{"id":0}`, `{"id":-1}`, `{"id":"1"}`} {
		t.Run(raw, func(t *testing.T) {
			_, err := r.Get.Serve(context.Background(), anonymousCall, json.RawMessage(raw))
			if model.KindOf(err) != model.KindInvalidInput {
				t.Errorf("KindOf(err) = %q, want %q", model.KindOf(err), model.KindInvalidInput)
			}
		})
	}
}

// --- create/update/delete の認可 ---

func TestRouter_Mutations_RequireAdmin(t *testing.T) {
	validCreate := json.RawMessage(`{"title":"New","imageUrl":"https://cdn.example.com/new.jpg","imageKey":"new.jpg"}`)
	validUpdate := json.RawMessage(`{"id":1,"title":"Renamed"}`)
	validDelete := json.RawMessage(`{"id":1}`)

	tests := []struct {
		name     string
		call     *procedure.Call
		wantCode string
	}{
		{"anonymous", anonymousCall, model.ErrCodeUnauthorized},
		{"member", memberCall, model.ErrCodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seededPhotos()
			endpoints := NewPhotoRouter(store).Endpoints()

			for name, raw := range map[string]json.RawMessage{"create": validCreate, "update": validUpdate, "delete": validDelete} {
				_, err := endpoints[name].Serve(context.Background(), tt.call, raw)
				var apiErr *model.APIError
				if !errors.As(err, &apiErr) || apiErr.Code != tt.wantCode {
					t.Errorf("%s: err = %v, want code %q", name, err, tt.wantCode)
				}
				if apiErr != nil && apiErr.Kind != model.KindUnauthorized {
					t.Errorf("%s: Kind = %q, want %q", name, apiErr.Kind, model.KindUnauthorized)
				}
			}

			if store.creates+store.updates+store.deletes != 0 {
				t.Errorf("store mutated by %s caller", tt.name)
			}
			if len(store.records) != 3 {
				t.Errorf("records = %d, want 3", len(store.records))
			}
		})
	}
}

// --- create ---

// TestRouter_Create_ThenGet は作成した全フィールドがgetでそのまま返ることを検証する。
func TestRouter_Create_ThenGet(t *testing.T) {
	store := newMemPhotoStore()
	r := NewPhotoRouter(store)
	ctx := context.Background()

	in := PhotoCreateInput{
		Title:       "Harbor",
		Description: ptr(""),
		ImageURL:    "https://cdn.example.com/harbor.jpg",
		ImageKey:    "harbor.jpg",
		Location:    ptr("Yokohama"),
		Camera:      ptr("X100V"),
		Lens:        ptr(""),
		Settings:    ptr("f/8, 1/250s, ISO 200"),
		Tags:        "travel,Travel,night",
		Featured:    true,
		SortOrder:   4,
	}
	res, err := r.Create.Invoke(ctx, adminCall, in)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if res.ID <= 0 {
		t.Fatalf("Create() id = %d, want positive", res.ID)
	}

	got, err := r.Get.Invoke(ctx, anonymousCall, IDInput{ID: res.ID})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	want := model.Photo{
		Entry: model.Entry{
			ID:          res.ID,
			Title:       in.Title,
			Description: ptr(""),
			Tags:        in.Tags,
			Featured:    true,
			Published:   true,
			SortOrder:   4,
			CreatedAt:   store.now,
			UpdatedAt:   store.now,
		},
		ImageURL: in.ImageURL,
		ImageKey: in.ImageKey,
		Location: ptr("Yokohama"),
		Camera:   ptr("X100V"),
		Lens:     ptr(""),
		Settings: ptr("f/8, 1/250s, ISO 200"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Get() after Create() mismatch (-want +got):\n%s", diff)
	}
}

// TestRouter_MalformedTagsRejected は書き換えが必要なタグを入力エラーにすることを検証する。
func TestRouter_MalformedTagsRejected(t *testing.T) {
	store := newMemPhotoStore()
	store.seed(model.Photo{Entry: model.Entry{Title: "Existing", Tags: "sea", Published: true}})
	r := NewPhotoRouter(store)
	ctx := context.Background()

	for _, tags := range []string{"travel, Travel,travel,,night", " sea", "sea,", "sea,sea"} {
		t.Run(tags, func(t *testing.T) {
			_, err := r.Create.Invoke(ctx, adminCall, PhotoCreateInput{
				Title:    "Harbor",
				ImageURL: "https://cdn.example.com/harbor.jpg",
				ImageKey: "harbor.jpg",
				Tags:     tags,
			})
			if model.KindOf(err) != model.KindInvalidInput {
				t.Errorf("Create: KindOf(err) = %q, want %q", model.KindOf(err), model.KindInvalidInput)
			}

			_, err = r.Update.Invoke(ctx, adminCall, PhotoUpdateInput{ID: 1, Tags: ptr(tags)})
			if model.KindOf(err) != model.KindInvalidInput {
				t.Errorf("Update: KindOf(err) = %q, want %q", model.KindOf(err), model.KindInvalidInput)
			}
		})
	}

	if store.creates+store.updates != 0 {
		t.Errorf("store reached %d times, want 0", store.creates+store.updates)
	}
	if got := store.records[1].Tags; got != "sea" {
		t.Errorf("existing tags = %q, want unchanged", got)
	}
}

func TestRouter_Create_Draft(t *testing.T) {
	store := newMemPhotoStore()
	r := NewPhotoRouter(store)
	ctx := context.Background()

	res, err := r.Create.Invoke(ctx, adminCall, PhotoCreateInput{
		Title:     "Hidden",
		ImageURL:  "https://cdn.example.com/h.jpg",
		ImageKey:  "h.jpg",
		Published: ptr(false),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := r.Get.Invoke(ctx, anonymousCall, IDInput{ID: res.ID}); model.KindOf(err) != model.KindNotFound {
		t.Errorf("anonymous Get(draft): KindOf(err) = %q, want %q", model.KindOf(err), model.KindNotFound)
	}
	list, err := r.List.Invoke(ctx, anonymousCall, ListInput{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 0 {
		t.Errorf("anonymous List() = %v, want empty", titles(list))
	}
}

func TestRouter_Create_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing title", `{"imageUrl":"https://cdn.example.com/a.jpg","imageKey":"a.jpg"}`},
		{"missing imageUrl", `{"title":"A","imageKey":"a.jpg"}`},
		{"not a url", `{"title":"A","imageUrl":"not a url","imageKey":"a.jpg"}`},
		{"private url", `{"title":"A","imageUrl":"http://192.168.0.10/a.jpg","imageKey":"a.jpg"}`},
		{"localhost url", `{"title":"A","imageUrl":"http://localhost/a.jpg","imageKey":"a.jpg"}`},
		{"client supplied id", `{"id":5,"title":"A","imageUrl":"https://cdn.example.com/a.jpg","imageKey":"a.jpg"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemPhotoStore()
			r := NewPhotoRouter(store)

			// 不正な入力は呼び出し元が誰であってもInvalidInputになる
			for _, call := range []*procedure.Call{anonymousCall, adminCall} {
				_, err := r.Create.Serve(context.Background(), call, json.RawMessage(tt.raw))
				if model.KindOf(err) != model.KindInvalidInput {
					t.Errorf("KindOf(err) = %q, want %q", model.KindOf(err), model.KindInvalidInput)
				}
			}
			if store.creates != 0 {
				t.Error("store.Create should not be called")
			}
		})
	}
}

// --- update ---

func TestRouter_Update(t *testing.T) {
	store := seededPhotos()
	r := NewPhotoRouter(store)
	ctx := context.Background()

	res, err := r.Update.Invoke(ctx, adminCall, PhotoUpdateInput{ID: 2, Published: ptr(true), Tags: ptr("b,a")})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !res.Success {
		t.Error("Success = false, want true")
	}

	got, err := r.Get.Invoke(ctx, anonymousCall, IDInput{ID: 2})
	if err != nil {
		t.Fatalf("Get() after publish error = %v", err)
	}
	if got.Title != "Draft" {
		t.Errorf("Title = %q, unchanged field should be preserved", got.Title)
	}
	if got.Tags != "b,a" {
		t.Errorf("Tags = %q, want %q as submitted", got.Tags, "b,a")
	}
}

func TestRouter_Update_Missing(t *testing.T) {
	r := NewPhotoRouter(seededPhotos())

	_, err := r.Update.Invoke(context.Background(), adminCall, PhotoUpdateInput{ID: 404, Title: ptr("x")})
	if model.KindOf(err) != model.KindNotFound {
		t.Errorf("KindOf(err) = %q, want %q", model.KindOf(err), model.KindNotFound)
	}
}

func TestRouter_Update_InvalidInput(t *testing.T) {
	r := NewPhotoRouter(seededPhotos())

	for _, raw := range []string{`{"title":"x"}`, `{"id":1,"title":""}`, `{"id":1,"imageUrl":"ftp://cdn.example.com/a.jpg"}`} {
		t.Run(raw, func(t *testing.T) {
			_, err := r.Update.Serve(context.Background(), adminCall, json.RawMessage(raw))
			if model.KindOf(err) != model.KindInvalidInput {
				t.Errorf("KindOf(err) = %q, want %q", model.KindOf(err), model.KindInvalidInput)
			}
		})
	}
}

// --- delete ---

func TestRouter_Delete(t *testing.T) {
	store := seededPhotos()
	r := NewPhotoRouter(store)
	ctx := context.Background()

	res, err := r.Delete.Invoke(ctx, adminCall, IDInput{ID: 1})
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !res.Success {
		t.Error("Success = false, want true")
	}
	if _, err := r.Get.Invoke(ctx, adminCall, IDInput{ID: 1}); model.KindOf(err) != model.KindNotFound {
		t.Errorf("Get() after Delete(): KindOf(err) = %q, want %q", model.KindOf(err), model.KindNotFound)
	}

	_, err = r.Delete.Invoke(ctx, adminCall, IDInput{ID: 1})
	if model.KindOf(err) != model.KindNotFound {
		t.Errorf("second Delete(): KindOf(err) = %q, want %q", model.KindOf(err), model.KindNotFound)
	}
}

// --- 永続化層の障害 ---

func TestRouter_StoreFailure(t *testing.T) {
	store := seededPhotos()
	store.failWith = errors.New("pq: connection refused")
	r := NewPhotoRouter(store)
	ctx := context.Background()

	checks := map[string]error{}
	_, checks["list"] = r.List.Invoke(ctx, anonymousCall, ListInput{})
	_, checks["get"] = r.Get.Invoke(ctx, anonymousCall, IDInput{ID: 1})
	_, checks["create"] = r.Create.Invoke(ctx, adminCall, PhotoCreateInput{Title: "x", ImageURL: "https://cdn.example.com/x.jpg", ImageKey: "x"})
	_, checks["update"] = r.Update.Invoke(ctx, adminCall, PhotoUpdateInput{ID: 1})
	_, checks["delete"] = r.Delete.Invoke(ctx, adminCall, IDInput{ID: 1})

	for name, err := range checks {
		if model.KindOf(err) != model.KindCollaboratorFailure {
			t.Errorf("%s: KindOf(err) = %q, want %q", name, model.KindOf(err), model.KindCollaboratorFailure)
		}
	}
}

func TestRouter_Endpoints_Metadata(t *testing.T) {
	endpoints := NewPhotoRouter(newMemPhotoStore()).Endpoints()

	tests := []struct {
		name     string
		wantTier procedure.Tier
		wantKind procedure.Kind
	}{
		{"list", procedure.TierPublic, procedure.Query},
		{"get", procedure.TierPublic, procedure.Query},
		{"create", procedure.TierAdmin, procedure.Mutation},
		{"update", procedure.TierAdmin, procedure.Mutation},
		{"delete", procedure.TierAdmin, procedure.Mutation},
	}
	if len(endpoints) != len(tests) {
		t.Fatalf("len(Endpoints()) = %d, want %d", len(endpoints), len(tests))
	}
	for _, tt := range tests {
		ep, ok := endpoints[tt.name]
		if !ok {
			t.Errorf("%s not registered", tt.name)
			continue
		}
		if ep.Tier() != tt.wantTier || ep.Kind() != tt.wantKind {
			t.Errorf("%s: tier=%v kind=%v, want tier=%v kind=%v", tt.name, ep.Tier(), ep.Kind(), tt.wantTier, tt.wantKind)
		}
	}
}
