package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Rohan-flutterint/hr-voice-screen/internal/model"
	"github.com/Rohan-flutterint/hr-voice-screen/internal/scoring"
	"github.com/Rohan-flutterint/hr-voice-screen/internal/store"
)

type fakeGenerator struct {
	questions []model.QuestionRecord
	err       error
}

func (f *fakeGenerator) Generate(_ context.Context, _, _, _ string) ([]model.QuestionRecord, error) {
	return f.questions, f.err
}

type fakeScorer struct {
	score scoring.Score
	err   error
}

func (f *fakeScorer) FinalScore(_ context.Context, _, _, _ string) (scoring.Score, error) {
	return f.score, f.err
}

func twoQuestions() []model.QuestionRecord {
	return []model.QuestionRecord{
		{Question: "Q1", Difficulty: model.DifficultyEasy, IdealAnswer: "A1", Tags: []string{}},
		{Question: "Q2", Difficulty: model.DifficultyHard, IdealAnswer: "A2", Tags: []string{}},
	}
}

func newTestServer(t *testing.T, s *store.Store, gen QuestionGenerator, scorer AnswerScorer) *httptest.Server {
	t.Helper()
	h := New(s, gen, scorer, model.ScreenConfig{})
	r := chi.NewRouter()
	h.Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// login seeds a recruiter, authenticates, and returns the session cookie.
func login(t *testing.T, s *store.Store, srv *httptest.Server) *http.Cookie {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if _, err := s.CreateUser(model.User{
		Username:     "alice",
		PasswordHash: string(hash),
		Role:         model.UserRoleRecruiter,
		Active:       true,
	}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	resp, err := http.Post(srv.URL+"/api/login", "application/json",
		bytes.NewBufferString(`{"username":"alice","password":"secret"}`))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatal("login response has no session cookie")
	return nil
}

func doJSON(t *testing.T, method, url string, cookie *http.Cookie, body string, out any) int {
	t.Helper()
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func TestAuthRequired(t *testing.T) {
	s := newTestStore(t)
	srv := newTestServer(t, s, &fakeGenerator{}, &fakeScorer{})

	status := doJSON(t, http.MethodGet, srv.URL+"/api/screens", nil, "", nil)
	if status != http.StatusUnauthorized {
		t.Errorf("expected 401 without cookie, got %d", status)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	s := newTestStore(t)
	srv := newTestServer(t, s, &fakeGenerator{}, &fakeScorer{})
	login(t, s, srv)

	resp, err := http.Post(srv.URL+"/api/login", "application/json",
		bytes.NewBufferString(`{"username":"alice","password":"wrong"}`))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
}

func TestScreenWalkthrough(t *testing.T) {
	s := newTestStore(t)
	scorer := &fakeScorer{score: scoring.Score{
		Final: 84.0, Semantic: 100.0, Rubric: 60.0,
		Details: model.RubricDetails{Coverage: 3, Correctness: 2, Clarity: 4},
	}}
	srv := newTestServer(t, s, &fakeGenerator{questions: twoQuestions()}, scorer)
	cookie := login(t, s, srv)

	var created createScreenResponse
	status := doJSON(t, http.MethodPost, srv.URL+"/api/screens", cookie,
		`{"job_description":"jd","resume":"resume","role_hint":"SRE","candidate":"Bob"}`, &created)
	if status != http.StatusCreated {
		t.Fatalf("create screen status = %d", status)
	}
	if created.Total != 2 || created.ScreenID == "" {
		t.Fatalf("unexpected create response: %+v", created)
	}

	base := srv.URL + "/api/screens/" + created.ScreenID

	var q questionResponse
	if status := doJSON(t, http.MethodGet, base+"/question", cookie, "", &q); status != http.StatusOK {
		t.Fatalf("question status = %d", status)
	}
	if q.Done || q.Question != "Q1" || q.Position != 0 || q.Total != 2 {
		t.Fatalf("unexpected first question: %+v", q)
	}

	for i := 0; i < 2; i++ {
		var result model.AnswerResult
		body := fmt.Sprintf(`{"transcript":"answer %d"}`, i)
		if status := doJSON(t, http.MethodPost, base+"/answer", cookie, body, &result); status != http.StatusOK {
			t.Fatalf("answer %d status = %d", i, status)
		}
		if result.Score != 84.0 {
			t.Errorf("answer %d score = %f", i, result.Score)
		}
	}

	if status := doJSON(t, http.MethodGet, base+"/question", cookie, "", &q); status != http.StatusOK {
		t.Fatalf("question status = %d", status)
	}
	if !q.Done {
		t.Error("expected done=true after answering all questions")
	}

	var summary model.SessionSummary
	if status := doJSON(t, http.MethodGet, base+"/summary", cookie, "", &summary); status != http.StatusOK {
		t.Fatalf("summary status = %d", status)
	}
	if summary.Overall != 84.0 {
		t.Errorf("summary overall = %f", summary.Overall)
	}
	if len(summary.Items) != 2 {
		t.Errorf("summary items = %d", len(summary.Items))
	}
	if summary.ByDifficulty[model.DifficultyEasy] != 84.0 || summary.ByDifficulty[model.DifficultyHard] != 84.0 {
		t.Errorf("unexpected by_difficulty: %v", summary.ByDifficulty)
	}

	screen, err := s.GetScreenByPublicID(created.ScreenID)
	if err != nil {
		t.Fatalf("GetScreenByPublicID: %v", err)
	}
	if screen.Status != model.ScreenCompleted {
		t.Errorf("expected completed status, got %q", screen.Status)
	}
	if screen.CompletedAt == nil {
		t.Error("expected completed_at to be set")
	}
}

func TestAnswerValidation(t *testing.T) {
	s := newTestStore(t)
	srv := newTestServer(t, s, &fakeGenerator{questions: twoQuestions()[:1]},
		&fakeScorer{score: scoring.Score{Final: 50}})
	cookie := login(t, s, srv)

	var created createScreenResponse
	doJSON(t, http.MethodPost, srv.URL+"/api/screens", cookie,
		`{"job_description":"jd","resume":"resume"}`, &created)
	base := srv.URL + "/api/screens/" + created.ScreenID

	if status := doJSON(t, http.MethodPost, base+"/answer", cookie, `{"transcript":"  "}`, nil); status != http.StatusBadRequest {
		t.Errorf("blank transcript: expected 400, got %d", status)
	}

	if status := doJSON(t, http.MethodPost, base+"/answer", cookie, `{"transcript":"real answer"}`, nil); status != http.StatusOK {
		t.Fatalf("answer status = %d", status)
	}
	if status := doJSON(t, http.MethodPost, base+"/answer", cookie, `{"transcript":"one too many"}`, nil); status != http.StatusConflict {
		t.Errorf("exhausted session: expected 409, got %d", status)
	}
}

func TestScreenNotFound(t *testing.T) {
	s := newTestStore(t)
	srv := newTestServer(t, s, &fakeGenerator{}, &fakeScorer{})
	cookie := login(t, s, srv)

	status := doJSON(t, http.MethodGet, srv.URL+"/api/screens/nope/question", cookie, "", nil)
	if status != http.StatusNotFound {
		t.Errorf("expected 404, got %d", status)
	}
}

func TestCreateScreenValidation(t *testing.T) {
	s := newTestStore(t)
	srv := newTestServer(t, s, &fakeGenerator{questions: twoQuestions()}, &fakeScorer{})
	cookie := login(t, s, srv)

	tests := []struct {
		name string
		body string
	}{
		{"missing jd", `{"resume":"resume"}`},
		{"missing resume", `{"job_description":"jd"}`},
		{"blank jd", `{"job_description":"  ","resume":"resume"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status := doJSON(t, http.MethodPost, srv.URL+"/api/screens", cookie, tt.body, nil); status != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", status)
			}
		})
	}
}

func TestEmptyBatteryIsValid(t *testing.T) {
	s := newTestStore(t)
	srv := newTestServer(t, s, &fakeGenerator{questions: nil}, &fakeScorer{})
	cookie := login(t, s, srv)

	var created createScreenResponse
	status := doJSON(t, http.MethodPost, srv.URL+"/api/screens", cookie,
		`{"job_description":"jd","resume":"resume"}`, &created)
	if status != http.StatusCreated {
		t.Fatalf("expected 201 for empty battery, got %d", status)
	}
	if created.Total != 0 {
		t.Errorf("expected total 0, got %d", created.Total)
	}

	var q questionResponse
	doJSON(t, http.MethodGet, srv.URL+"/api/screens/"+created.ScreenID+"/question", cookie, "", &q)
	if !q.Done {
		t.Error("empty battery should start exhausted")
	}
}

// A second handler over the same store must resume a half-answered screen
// from persisted state.
func TestRestoreAfterRestart(t *testing.T) {
	s := newTestStore(t)
	scorer := &fakeScorer{score: scoring.Score{Final: 70.0}}
	srv := newTestServer(t, s, &fakeGenerator{questions: twoQuestions()}, scorer)
	cookie := login(t, s, srv)

	var created createScreenResponse
	doJSON(t, http.MethodPost, srv.URL+"/api/screens", cookie,
		`{"job_description":"jd","resume":"resume"}`, &created)
	doJSON(t, http.MethodPost, srv.URL+"/api/screens/"+created.ScreenID+"/answer", cookie,
		`{"transcript":"first answer"}`, nil)

	srv2 := newTestServer(t, s, &fakeGenerator{}, scorer)
	base2 := srv2.URL + "/api/screens/" + created.ScreenID

	var q questionResponse
	if status := doJSON(t, http.MethodGet, base2+"/question", cookie, "", &q); status != http.StatusOK {
		t.Fatalf("question status = %d", status)
	}
	if q.Done || q.Question != "Q2" || q.Position != 1 {
		t.Fatalf("expected resume at second question, got %+v", q)
	}

	if status := doJSON(t, http.MethodPost, base2+"/answer", cookie, `{"transcript":"second answer"}`, nil); status != http.StatusOK {
		t.Fatalf("answer status = %d", status)
	}

	var summary model.SessionSummary
	doJSON(t, http.MethodGet, base2+"/summary", cookie, "", &summary)
	if len(summary.Items) != 2 {
		t.Errorf("expected 2 items after restore, got %d", len(summary.Items))
	}
	if summary.Overall != 70.0 {
		t.Errorf("summary overall = %f", summary.Overall)
	}
}
