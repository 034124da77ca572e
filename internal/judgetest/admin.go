package judgetest

import (
	"net/http"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/openjudge/judgectl/admin"
)

func (s *Server) mountAdmin(r chi.Router) {
	r.Get("/problems", s.listProblems)
	r.Post("/problems", s.createProblem)
	r.Get("/problems/{id}", s.getProblem)
	r.Put("/problems/{id}", s.updateProblem)
	r.Delete("/problems/{id}", s.deleteProblem)
	r.Patch("/problems/{id}/visibility", s.setProblemVisibility)
	r.Get("/problems/{id}/datasets", s.listDatasets)
	r.Post("/problems/{id}/datasets", s.uploadDataset)
	r.Delete("/problems/{id}/datasets/{datasetID}", s.deleteDataset)

	r.Get("/contests", s.listContests)
	r.Post("/contests", s.createContest)
	r.Get("/contests/{id}", s.getContest)
	r.Put("/contests/{id}", s.updateContest)
	r.Delete("/contests/{id}", s.deleteContest)

	r.Get("/users", s.listUsers)
	r.Get("/users/{id}", s.getUser)
	r.Put("/users/{id}", s.updateUser)
	r.Post("/users/{id}/ban", s.banUser)
	r.Post("/users/{id}/unban", s.unbanUser)
	r.Put("/users/{id}/roles", s.assignRoles)

	r.Get("/roles", s.listRoles)
	r.Post("/roles", s.createRole)
	r.Put("/roles/{id}", s.updateRole)
	r.Delete("/roles/{id}", s.deleteRole)

	r.Get("/tags", s.listTags)
	r.Post("/tags", s.createTag)
	r.Delete("/tags/{id}", s.deleteTag)

	r.Get("/comments", s.listComments)
	r.Post("/comments/{id}/approve", s.moderateComment("approved"))
	r.Post("/comments/{id}/reject", s.moderateComment("rejected"))
	r.Delete("/comments/{id}", s.deleteComment)

	r.Get("/words", s.listWords)
	r.Post("/words", s.createWord)
	r.Delete("/words/{id}", s.deleteWord)

	r.Get("/nodes", s.listNodes)
	r.Get("/jobs", s.listJobs)
	r.Get("/jobs/{id}", s.getJob)
	r.Post("/jobs/{id}/retry", s.retryJob)

	r.Get("/tokens", s.listTokens)
	r.Post("/tokens/{id}/revoke", s.revokeToken)
}

func numericID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "bad_request", "invalid id")
		return 0, false
	}
	return id, true
}

func matchKeyword(keyword string, fields ...string) bool {
	if keyword == "" {
		return true
	}
	keyword = strings.ToLower(keyword)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), keyword) {
			return true
		}
	}
	return false
}

// ---- problems ----

func (s *Server) listProblems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.mu.Lock()
	var all []admin.Problem
	for _, p := range s.problems {
		if !matchKeyword(q.Get("keyword"), p.Title, p.Slug) {
			continue
		}
		if d := q.Get("difficulty"); d != "" && p.Difficulty != d {
			continue
		}
		all = append(all, *p)
	}
	s.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	page, pageSize := parsePage(r)
	start, end, meta := paginate(len(all), page, pageSize)
	writeData(w, http.StatusOK, admin.ProblemPage{Problems: all[start:end], Meta: meta})
}

func (s *Server) createProblem(w http.ResponseWriter, r *http.Request) {
	draft, ok := decodeJSON[admin.ProblemDraft](w, r)
	if !ok {
		return
	}
	if draft.Title == "" {
		writeErr(w, http.StatusOK, "validation", "title is required")
		return
	}
	s.mu.Lock()
	p := &admin.Problem{
		ID:         s.nextNumericID(),
		Title:      draft.Title,
		Slug:       draft.Slug,
		Difficulty: draft.Difficulty,
		Tags:       draft.Tags,
		CreatedAt:  time.Now().UTC(),
	}
	s.problems[p.ID] = p
	s.mu.Unlock()
	writeData(w, http.StatusOK, p)
}

func (s *Server) getProblem(w http.ResponseWriter, r *http.Request) {
	id, ok := numericID(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	p := s.problems[id]
	s.mu.Unlock()
	if p == nil {
		writeErr(w, http.StatusNotFound, "not_found", "problem not found")
		return
	}
	writeData(w, http.StatusOK, p)
}

func (s *Server) updateProblem(w http.ResponseWriter, r *http.Request) {
	id, ok := numericID(w, r, "id")
	if !ok {
		return
	}
	draft, ok := decodeJSON[admin.ProblemDraft](w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	p := s.problems[id]
	if p != nil {
		p.Title = draft.Title
		p.Slug = draft.Slug
		p.Difficulty = draft.Difficulty
		p.Tags = draft.Tags
		p.UpdatedAt = time.Now().UTC()
	}
	s.mu.Unlock()
	if p == nil {
		writeErr(w, http.StatusNotFound, "not_found", "problem not found")
		return
	}
	writeData(w, http.StatusOK, p)
}

func (s *Server) deleteProblem(w http.ResponseWriter, r *http.Request) {
	id, ok := numericID(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.problems, id)
	s.mu.Unlock()
	writeData(w, http.StatusOK, nil)
}

func (s *Server) setProblemVisibility(w http.ResponseWriter, r *http.Request) {
	id, ok := numericID(w, r, "id")
	if !ok {
		return
	}
	req, ok := decodeJSON[struct {
		Visible bool `json:"visible"`
	}](w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	p := s.problems[id]
	if p != nil {
		p.Visible = req.Visible
	}
	s.mu.Unlock()
	if p == nil {
		writeErr(w, http.StatusNotFound, "not_found", "problem not found")
		return
	}
	writeData(w, http.StatusOK, p)
}

// ---- datasets ----

func (s *Server) listDatasets(w http.ResponseWriter, r *http.Request) {
	id, ok := numericID(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	var out []admin.Dataset
	for _, d := range s.datasets {
		if d.ProblemID == id {
			out = append(out, *d)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeData(w, http.StatusOK, map[string]any{"datasets": out})
}

func (s *Server) uploadDataset(w http.ResponseWriter, r *http.Request) {
	id, ok := numericID(w, r, "id")
	if !ok {
		return
	}
	manifest, ok := decodeJSON[admin.DatasetManifest](w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	d := &admin.Dataset{
		ID:        s.nextNumericID(),
		ProblemID: id,
		Name:      manifest.Name,
		Cases:     len(manifest.Cases),
		CreatedAt: time.Now().UTC(),
	}
	s.datasets[d.ID] = d
	s.mu.Unlock()
	writeData(w, http.StatusOK, d)
}

func (s *Server) deleteDataset(w http.ResponseWriter, r *http.Request) {
	id, ok := numericID(w, r, "datasetID")
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.datasets, id)
	s.mu.Unlock()
	writeData(w, http.StatusOK, nil)
}

// ---- contests ----

func (s *Server) listContests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.mu.Lock()
	var all []admin.Contest
	for _, c := range s.contests {
		if matchKeyword(q.Get("keyword"), c.Title) {
			all = append(all, *c)
		}
	}
	s.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	page, pageSize := parsePage(r)
	start, end, meta := paginate(len(all), page, pageSize)
	writeData(w, http.StatusOK, admin.ContestPage{Contests: all[start:end], Meta: meta})
}

func (s *Server) createContest(w http.ResponseWriter, r *http.Request) {
	draft, ok := decodeJSON[admin.ContestDraft](w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	c := &admin.Contest{
		ID:         s.nextNumericID(),
		Title:      draft.Title,
		Kind:       draft.Kind,
		StartAt:    draft.StartAt,
		EndAt:      draft.EndAt,
		ProblemIDs: draft.ProblemIDs,
	}
	s.contests[c.ID] = c
	s.mu.Unlock()
	writeData(w, http.StatusOK, c)
}

func (s *Server) getContest(w http.ResponseWriter, r *http.Request) {
	id, ok := numericID(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	c := s.contests[id]
	s.mu.Unlock()
	if c == nil {
		writeErr(w, http.StatusNotFound, "not_found", "contest not found")
		return
	}
	writeData(w, http.StatusOK, c)
}

func (s *Server) updateContest(w http.ResponseWriter, r *http.Request) {
	id, ok := numericID(w, r, "id")
	if !ok {
		return
	}
	draft, ok := decodeJSON[admin.ContestDraft](w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	c := s.contests[id]
	if c != nil {
		c.Title = draft.Title
		c.Kind = draft.Kind
		c.StartAt = draft.StartAt
		c.EndAt = draft.EndAt
		c.ProblemIDs = draft.ProblemIDs
	}
	s.mu.Unlock()
	if c == nil {
		writeErr(w, http.StatusNotFound, "not_found", "contest not found")
		return
	}
	writeData(w, http.StatusOK, c)
}

func (s *Server) deleteContest(w http.ResponseWriter, r *http.Request) {
	id, ok := numericID(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.contests, id)
	s.mu.Unlock()
	writeData(w, http.StatusOK, nil)
}

// ---- users ----

func (s *Server) adminUser(acc *account) admin.User {
	return admin.User{
		ID:       acc.ID,
		Username: acc.Username,
		Email:    acc.Email,
		Roles:    append([]string(nil), acc.Roles...),
		Status:   acc.Status,
	}
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.mu.Lock()
	seen := make(map[string]bool)
	var all []admin.User
	for _, acc := range s.accounts {
		if seen[acc.ID] {
			continue
		}
		seen[acc.ID] = true
		if !matchKeyword(q.Get("keyword"), acc.Username, acc.Email) {
			continue
		}
		if st := q.Get("status"); st != "" && acc.Status != st {
			continue
		}
		all = append(all, s.adminUser(acc))
	}
	s.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].Username < all[j].Username })

	page, pageSize := parsePage(r)
	start, end, meta := paginate(len(all), page, pageSize)
	writeData(w, http.StatusOK, admin.UserPage{Users: all[start:end], Meta: meta})
}

func (s *Server) userByID(w http.ResponseWriter, r *http.Request) *account {
	acc := s.accountByID(chi.URLParam(r, "id"))
	if acc == nil {
		writeErr(w, http.StatusNotFound, "not_found", "user not found")
	}
	return acc
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	if acc := s.userByID(w, r); acc != nil {
		writeData(w, http.StatusOK, s.adminUser(acc))
	}
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	acc := s.userByID(w, r)
	if acc == nil {
		return
	}
	fields, ok := decodeJSON[map[string]any](w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	if email, found := fields["email"].(string); found {
		delete(s.accounts, acc.Email)
		acc.Email = email
		s.accounts[email] = acc
	}
	s.mu.Unlock()
	writeData(w, http.StatusOK, s.adminUser(acc))
}

func (s *Server) setUserStatus(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acc := s.userByID(w, r)
		if acc == nil {
			return
		}
		s.mu.Lock()
		acc.Status = status
		s.mu.Unlock()
		writeData(w, http.StatusOK, s.adminUser(acc))
	}
}

func (s *Server) banUser(w http.ResponseWriter, r *http.Request) {
	s.setUserStatus("banned")(w, r)
}

func (s *Server) unbanUser(w http.ResponseWriter, r *http.Request) {
	s.setUserStatus("active")(w, r)
}

func (s *Server) assignRoles(w http.ResponseWriter, r *http.Request) {
	acc := s.userByID(w, r)
	if acc == nil {
		return
	}
	req, ok := decodeJSON[struct {
		Roles []string `json:"roles"`
	}](w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	acc.Roles = req.Roles
	s.mu.Unlock()
	writeData(w, http.StatusOK, s.adminUser(acc))
}

// ---- roles ----

func (s *Server) listRoles(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	var all []admin.Role
	for _, role := range s.roles {
		all = append(all, *role)
	}
	s.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	page, pageSize := parsePage(r)
	start, end, meta := paginate(len(all), page, pageSize)
	writeData(w, http.StatusOK, admin.RolePage{Roles: all[start:end], Meta: meta})
}

func (s *Server) createRole(w http.ResponseWriter, r *http.Request) {
	role, ok := decodeJSON[admin.Role](w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	role.ID = s.nextNumericID()
	s.roles[role.ID] = &role
	s.mu.Unlock()
	writeData(w, http.StatusOK, role)
}

func (s *Server) updateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := numericID(w, r, "id")
	if !ok {
		return
	}
	role, ok := decodeJSON[admin.Role](w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	existing := s.roles[id]
	if existing != nil {
		role.ID = id
		s.roles[id] = &role
	}
	s.mu.Unlock()
	if existing == nil {
		writeErr(w, http.StatusNotFound, "not_found", "role not found")
		return
	}
	writeData(w, http.StatusOK, role)
}

func (s *Server) deleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := numericID(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.roles, id)
	s.mu.Unlock()
	writeData(w, http.StatusOK, nil)
}

// ---- tags ----

func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.mu.Lock()
	var all []admin.Tag
	for _, t := range s.tags {
		if matchKeyword(q.Get("keyword"), t.Name) {
			all = append(all, *t)
		}
	}
	s.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	page, pageSize := parsePage(r)
	start, end, meta := paginate(len(all), page, pageSize)
	writeData(w, http.StatusOK, admin.TagPage{Tags: all[start:end], Meta: meta})
}

func (s *Server) createTag(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[struct {
		Name string `json:"name"`
	}](w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	t := &admin.Tag{ID: s.nextNumericID(), Name: req.Name}
	s.tags[t.ID] = t
	s.mu.Unlock()
	writeData(w, http.StatusOK, t)
}

func (s *Server) deleteTag(w http.ResponseWriter, r *http.Request) {
	id, ok := numericID(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.tags, id)
	s.mu.Unlock()
	writeData(w, http.StatusOK, nil)
}

// ---- comments ----

func (s *Server) listComments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.mu.Lock()
	var all []admin.Comment
	for _, c := range s.comments {
		if st := q.Get("status"); st != "" && c.Status != st {
			continue
		}
		if matchKeyword(q.Get("keyword"), c.Body, c.Author) {
			all = append(all, *c)
		}
	}
	s.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	page, pageSize := parsePage(r)
	start, end, meta := paginate(len(all), page, pageSize)
	writeData(w, http.StatusOK, admin.CommentPage{Comments: all[start:end], Meta: meta})
}

func (s *Server) moderateComment(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := numericID(w, r, "id")
		if !ok {
			return
		}
		s.mu.Lock()
		c := s.comments[id]
		if c != nil {
			c.Status = status
		}
		s.mu.Unlock()
		if c == nil {
			writeErr(w, http.StatusNotFound, "not_found", "comment not found")
			return
		}
		writeData(w, http.StatusOK, c)
	}
}

func (s *Server) deleteComment(w http.ResponseWriter, r *http.Request) {
	id, ok := numericID(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.comments, id)
	s.mu.Unlock()
	writeData(w, http.StatusOK, nil)
}

// SeedComment adds a comment to the moderation queue.
func (s *Server) SeedComment(author, body string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &admin.Comment{
		ID:        s.nextNumericID(),
		Author:    author,
		Body:      body,
		Status:    "pending",
		CreatedAt: time.Now().UTC(),
	}
	s.comments[c.ID] = c
	return c.ID
}

// ---- sensitive words ----

func (s *Server) listWords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.mu.Lock()
	var all []admin.SensitiveWord
	for _, word := range s.words {
		if matchKeyword(q.Get("keyword"), word.Word) {
			all = append(all, *word)
		}
	}
	s.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	page, pageSize := parsePage(r)
	start, end, meta := paginate(len(all), page, pageSize)
	writeData(w, http.StatusOK, admin.WordPage{Words: all[start:end], Meta: meta})
}

func (s *Server) createWord(w http.ResponseWriter, r *http.Request) {
	word, ok := decodeJSON[admin.SensitiveWord](w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	word.ID = s.nextNumericID()
	s.words[word.ID] = &word
	s.mu.Unlock()
	writeData(w, http.StatusOK, word)
}

func (s *Server) deleteWord(w http.ResponseWriter, r *http.Request) {
	id, ok := numericID(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.words, id)
	s.mu.Unlock()
	writeData(w, http.StatusOK, nil)
}

// ---- judge nodes, jobs ----

func (s *Server) listNodes(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	var all []admin.JudgeNode
	for _, n := range s.nodes {
		all = append(all, *n)
	}
	s.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].Hostname < all[j].Hostname })
	writeData(w, http.StatusOK, map[string]any{"nodes": all})
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.mu.Lock()
	var all []admin.JudgeJob
	for _, j := range s.jobs {
		if st := q.Get("status"); st != "" && j.Status != st {
			continue
		}
		if n := q.Get("nodeId"); n != "" && j.NodeID != n {
			continue
		}
		all = append(all, *j)
	}
	s.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	page, pageSize := parsePage(r)
	start, end, meta := paginate(len(all), page, pageSize)
	writeData(w, http.StatusOK, admin.JobPage{Jobs: all[start:end], Meta: meta})
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	id, ok := numericID(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	j := s.jobs[id]
	s.mu.Unlock()
	if j == nil {
		writeErr(w, http.StatusNotFound, "not_found", "job not found")
		return
	}
	writeData(w, http.StatusOK, j)
}

func (s *Server) retryJob(w http.ResponseWriter, r *http.Request) {
	if !s.requireSensitive(w, r) {
		return
	}
	id, ok := numericID(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	j := s.jobs[id]
	if j != nil {
		j.Status = "queued"
		j.Verdict = ""
		j.FinishedAt = nil
	}
	s.mu.Unlock()
	if j == nil {
		writeErr(w, http.StatusNotFound, "not_found", "job not found")
		return
	}
	writeData(w, http.StatusOK, j)
}

// ---- issued tokens ----

func (s *Server) listTokens(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	var all []admin.AuthToken
	for _, t := range s.issued {
		all = append(all, *t)
	}
	s.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	page, pageSize := parsePage(r)
	start, end, meta := paginate(len(all), page, pageSize)
	writeData(w, http.StatusOK, admin.TokenPage{Tokens: all[start:end], Meta: meta})
}

func (s *Server) revokeToken(w http.ResponseWriter, r *http.Request) {
	if !s.requireSensitive(w, r) {
		return
	}
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	t := s.issued[id]
	if t != nil {
		t.Revoked = true
	}
	s.mu.Unlock()
	if t == nil {
		writeErr(w, http.StatusNotFound, "not_found", "token not found")
		return
	}
	writeData(w, http.StatusOK, t)
}

// IssuedTokenIDs returns the ids of all issued tokens, for tests.
func (s *Server) IssuedTokenIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.issued))
	for id := range s.issued {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// TokenRevoked reports whether the issued token with the given id has been
// revoked.
func (s *Server) TokenRevoked(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.issued[id]
	return t != nil && t.Revoked
}

// JobStatus returns the status of the job with the given id, for tests.
func (s *Server) JobStatus(id int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j := s.jobs[id]; j != nil {
		return j.Status
	}
	return ""
}
