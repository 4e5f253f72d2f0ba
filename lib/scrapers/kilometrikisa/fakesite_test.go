package kilometrikisa

import (
	"encoding/json"
	"fmt"
	"kilometrikisa/lib/timezone"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"text/template"
	"time"

	_ "embed"
)

//go:embed login_page_test.html
var loginPageSource string

//go:embed profile_page_test.html
var profilePageSource string

//go:embed signup_page_test.html
var signupPageSource string

//go:embed front_page_test.html
var frontPageSource string

//go:embed contest_teams_page_test.html
var contestTeamsPageSource string

//go:embed my_teams_page_test.html
var myTeamsPageSource string

//go:embed team_page_test.html
var teamPageSource string

var (
	loginPage        = template.Must(template.New("login").Parse(loginPageSource))
	profilePage      = template.Must(template.New("profile").Parse(profilePageSource))
	contestTeamsPage = template.Must(template.New("contest_teams").Parse(contestTeamsPageSource))
	teamPage         = template.Must(template.New("team").Parse(teamPageSource))
)

const (
	fakeUsername = "kilometrikisatesti"
	fakePassword = "salasana1234"
	fakeToken    = "Xq3J8vTz0aLmR5wNcK2pYbE7dHs9GfUi"
)

type fakeTeam struct {
	Rank        int
	Slug        string
	Name        string
	Top         bool
	Members     int
	KmPerPerson string
	KmTotal     string
	Days        string
}

type fakeContest struct {
	Id    string
	Slug  string
	Name  string
	Start time.Time
	End   time.Time
	Teams []fakeTeam
	// StartAsString renders log entry starts as json strings
	StartAsString bool
}

// fakeSite serves the subset of kilometrikisa.fi the client scrapes, with
// csrf and session cookies checked the way the real site checks them.
type fakeSite struct {
	t      testing.TB
	server *httptest.Server

	mu        sync.Mutex
	sessions  map[string]bool
	contests  map[string]*fakeContest
	logs      map[string]map[string]float64
	failPages map[int]bool
	admin     bool
	pageSize  int
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, timezone.Location)
}

func fakeTeams(count int) []fakeTeam {
	teams := make([]fakeTeam, count)
	for i := range teams {
		rank := i + 1
		teams[i] = fakeTeam{
			Rank:        rank,
			Slug:        fmt.Sprintf("joukkue%d", rank),
			Name:        fmt.Sprintf("Joukkue %d", rank),
			Top:         rank <= 2,
			Members:     10 + rank,
			KmPerPerson: fmt.Sprintf("%d,5", 1000-rank),
			KmTotal:     fmt.Sprintf("1 %03d,0", 100-rank),
			Days:        fmt.Sprintf("%d", 100-rank),
		}
	}
	return teams
}

func newFakeSite(t testing.TB) *fakeSite {
	site := &fakeSite{
		t:        t,
		sessions: map[string]bool{},
		contests: map[string]*fakeContest{
			"kilometrikisa-2021": {
				Id:            "45",
				Slug:          "kilometrikisa-2021",
				Name:          "Kilometrikisa 2021",
				Start:         day(2021, time.May, 1),
				End:           day(2021, time.September, 22),
				Teams:         fakeTeams(7),
				StartAsString: true,
			},
			"talvikilometrikisa-2021": {
				Id:    "44",
				Slug:  "talvikilometrikisa-2021",
				Name:  "Talvikilometrikisa 2021",
				Start: day(2021, time.January, 1),
				End:   day(2021, time.February, 28),
				Teams: fakeTeams(2),
			},
			"kilometrikisa-2017": {
				Id:    "22",
				Slug:  "kilometrikisa-2017",
				Name:  "Kilometrikisa 2017",
				Start: day(2017, time.May, 1),
				End:   day(2017, time.September, 22),
				Teams: fakeTeams(3),
			},
		},
		logs:      map[string]map[string]float64{},
		failPages: map[int]bool{},
		pageSize:  3,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", site.handleStatic(frontPageSource))
	mux.HandleFunc("GET /accounts/login/", site.handleLoginPage)
	mux.HandleFunc("POST /accounts/login/", site.handleLogin)
	mux.HandleFunc("GET /accounts/profile/", site.authenticated(site.handleProfile))
	mux.HandleFunc("GET /accounts/myteams/", site.authenticated(site.handleStatic(myTeamsPageSource)))
	mux.HandleFunc("GET /teams/{team}/{contest}/", site.authenticated(site.handleTeam))
	mux.HandleFunc("GET /contests/{contest}/teams/", site.handleContestTeams)
	mux.HandleFunc("GET /contest/log_list_json/{id}/", site.authenticated(site.handleLogList))
	mux.HandleFunc("POST /contest/log-save/", site.authenticated(site.handleLogSave))

	site.server = httptest.NewServer(mux)
	t.Cleanup(site.server.Close)
	return site
}

func (s *fakeSite) render(w http.ResponseWriter, tmpl *template.Template, data any) {
	w.Header().Set("content-type", "text/html; charset=utf-8")
	err := tmpl.Execute(w, data)
	if err != nil {
		s.t.Error(err)
	}
}

func (s *fakeSite) handleStatic(source string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/html; charset=utf-8")
		w.Write([]byte(source))
	}
}

func (s *fakeSite) loggedIn(r *http.Request) bool {
	cookie, err := r.Cookie("sessionid")
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[cookie.Value]
}

// authenticated renders the signup page instead of next for anonymous
// visitors.
func (s *fakeSite) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.loggedIn(r) {
			s.handleStatic(signupPageSource)(w, r)
			return
		}
		next(w, r)
	}
}

func (s *fakeSite) checkCsrf(r *http.Request) bool {
	cookie, err := r.Cookie("csrftoken")
	if err != nil || cookie.Value != fakeToken {
		return false
	}
	return r.PostFormValue("csrfmiddlewaretoken") == fakeToken
}

func (s *fakeSite) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: fakeToken, Path: "/"})
	s.render(w, loginPage, map[string]any{"Token": fakeToken, "Failed": false})
}

func (s *fakeSite) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.checkCsrf(r) {
		http.Error(w, "CSRF verification failed", http.StatusForbidden)
		return
	}
	if r.PostFormValue("username") != fakeUsername || r.PostFormValue("password") != fakePassword {
		s.render(w, loginPage, map[string]any{"Token": fakeToken, "Failed": true})
		return
	}

	s.mu.Lock()
	session := fmt.Sprintf("session%d", len(s.sessions)+1)
	s.sessions[session] = true
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: session, Path: "/"})
	http.Redirect(w, r, profilePath, http.StatusFound)
}

func (s *fakeSite) handleProfile(w http.ResponseWriter, r *http.Request) {
	s.render(w, profilePage, map[string]any{"Token": fakeToken})
}

func (s *fakeSite) handleTeam(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	admin := s.admin
	s.mu.Unlock()
	s.render(w, teamPage, map[string]any{"Admin": admin})
}

func (s *fakeSite) handleContestTeams(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	contest, ok := s.contests[r.PathValue("contest")]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}

	list := strings.TrimPrefix(r.URL.Path, "/contests/"+contest.Slug+"/teams/")
	switch list {
	case "", "large/", "power/", "small/":
	default:
		http.NotFound(w, r)
		return
	}

	page := 1
	if value := r.URL.Query().Get("page"); value != "" {
		var err error
		page, err = strconv.Atoi(value)
		if err != nil {
			http.Error(w, "bad page", http.StatusBadRequest)
			return
		}
	}

	s.mu.Lock()
	failing := s.failPages[page]
	s.mu.Unlock()
	if failing {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	var teams []fakeTeam
	start := (page - 1) * s.pageSize
	if start < len(contest.Teams) {
		end := min(start+s.pageSize, len(contest.Teams))
		teams = contest.Teams[start:end]
	}

	s.render(w, contestTeamsPage, map[string]any{
		"Id":       contest.Id,
		"Slug":     contest.Slug,
		"Name":     contest.Name,
		"LoggedIn": s.loggedIn(r),
		"Teams":    teams,
	})
}

func (s *fakeSite) contestById(id string) *fakeContest {
	for _, contest := range s.contests {
		if contest.Id == id {
			return contest
		}
	}
	return nil
}

func (s *fakeSite) handleLogList(w http.ResponseWriter, r *http.Request) {
	start, err := strconv.ParseInt(r.URL.Query().Get("start"), 10, 64)
	if err != nil {
		http.Error(w, "bad start", http.StatusBadRequest)
		return
	}
	end, err := strconv.ParseInt(r.URL.Query().Get("end"), 10, 64)
	if err != nil {
		http.Error(w, "bad end", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	contest := s.contestById(r.PathValue("id"))
	if contest == nil {
		http.NotFound(w, r)
		return
	}

	entries := []map[string]any{}
	for d := contest.Start; !d.After(contest.End); d = d.AddDate(0, 0, 1) {
		if d.Unix() < start || d.Unix() > end {
			continue
		}
		km := s.logs[contest.Id][d.Format(time.DateOnly)]
		var entryStart any = d.Unix()
		if contest.StartAsString {
			entryStart = strconv.FormatInt(d.Unix(), 10)
		}
		entries = append(entries, map[string]any{
			"start":  entryStart,
			"title":  strconv.FormatFloat(km, 'f', -1, 64),
			"allDay": true,
		})
	}

	w.Header().Set("content-type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

func (s *fakeSite) handleLogSave(w http.ResponseWriter, r *http.Request) {
	if !s.checkCsrf(r) {
		http.Error(w, "CSRF verification failed", http.StatusForbidden)
		return
	}

	reply := func(status int) {
		w.Header().Set("content-type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{"status": status})
	}

	date, err := time.ParseInLocation(time.DateOnly, r.PostFormValue("km_date"), timezone.Location)
	if err != nil {
		reply(http.StatusBadRequest)
		return
	}
	km, err := strconv.ParseFloat(r.PostFormValue("km_amount"), 64)
	if err != nil || km < 0 {
		reply(http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	contest := s.contestById(r.PostFormValue("contest_id"))
	if contest == nil || date.Before(contest.Start) || date.After(contest.End) {
		reply(http.StatusBadRequest)
		return
	}
	if s.logs[contest.Id] == nil {
		s.logs[contest.Id] = map[string]float64{}
	}
	s.logs[contest.Id][date.Format(time.DateOnly)] = km
	reply(http.StatusOK)
}

func (s *fakeSite) client(t testing.TB) *Client {
	client, err := NewClient(ClientOptions{
		BaseUrl:  s.server.URL,
		Location: timezone.Location,
	})
	if err != nil {
		t.Fatal(err)
	}
	return client
}
