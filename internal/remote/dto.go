package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dori/plando/internal/model"
)

const dateLayout = time.DateOnly

// Date is a calendar date on the wire. It decodes "YYYY-MM-DD" and RFC 3339
// timestamps, and encodes "YYYY-MM-DD".
type Date struct {
	time.Time
}

// MarshalJSON implements json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(dateLayout))
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		d.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("failed to decode date: %w", err)
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("failed to parse date %q: %w", s, err)
	}
	d.Time = model.DateOf(t)
	return nil
}

func (d *Date) ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := model.DateOf(d.Time)
	return &t
}

func dateOf(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	return &Date{Time: model.DateOf(*t)}
}

type subTaskDTO struct {
	ID    string `json:"_id,omitempty"`
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

type taskDTO struct {
	ID          string       `json:"_id,omitempty"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Deadline    *Date        `json:"deadline,omitempty"`
	Status      string       `json:"status,omitempty"`
	Priority    string       `json:"piority,omitempty"`
	SubTasks    []subTaskDTO `json:"subTasks"`
}

type columnDTO struct {
	ID    string    `json:"_id,omitempty"`
	Title string    `json:"title"`
	Tasks []taskDTO `json:"tasks,omitempty"`
}

type boardDTO struct {
	ID      string      `json:"_id,omitempty"`
	Title   string      `json:"title"`
	Columns []columnDTO `json:"columns"`
}

type errorDTO struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type loginDTO struct {
	Token string `json:"token"`
}

func (w taskDTO) toModel() model.Task {
	t := model.Task{
		ID:          w.ID,
		Title:       w.Title,
		Description: w.Description,
		Deadline:    w.Deadline.ptr(),
		Status:      model.Status(w.Status),
		Priority:    model.Priority(w.Priority),
	}
	if t.Status == "" {
		t.Status = model.StatusTodo
	}
	if t.Priority == "" {
		t.Priority = model.PriorityLow
	}
	if w.SubTasks != nil {
		t.SubTasks = make([]model.SubTask, len(w.SubTasks))
		for i, st := range w.SubTasks {
			t.SubTasks[i] = model.SubTask{ID: st.ID, Title: st.Title, Done: st.Done}
		}
	}
	return t
}

func (w columnDTO) toModel() model.Column {
	c := model.Column{ID: w.ID, Title: w.Title}
	// a column that arrives with a tasks array carries its full task list
	if w.Tasks != nil {
		c.Tasks = tasksToModel(w.Tasks)
		c.TasksLoaded = true
	}
	return c
}

func (w boardDTO) toModel() model.Board {
	b := model.Board{ID: w.ID, Title: w.Title}
	if w.Columns != nil {
		b.Columns = columnsToModel(w.Columns)
	}
	return b
}

func tasksToModel(ws []taskDTO) []model.Task {
	out := make([]model.Task, len(ws))
	for i, w := range ws {
		out[i] = w.toModel()
	}
	return out
}

func columnsToModel(ws []columnDTO) []model.Column {
	out := make([]model.Column, len(ws))
	for i, w := range ws {
		out[i] = w.toModel()
	}
	return out
}

func boardsToModel(ws []boardDTO) []model.Board {
	out := make([]model.Board, len(ws))
	for i, w := range ws {
		out[i] = w.toModel()
	}
	return out
}

func taskInputDTO(in TaskInput) taskDTO {
	w := taskDTO{
		Title:       in.Title,
		Description: in.Description,
		Deadline:    dateOf(in.Deadline),
		Status:      string(in.Status),
		Priority:    string(in.Priority),
		SubTasks:    make([]subTaskDTO, 0, len(in.SubTasks)),
	}
	for _, title := range in.SubTasks {
		w.SubTasks = append(w.SubTasks, subTaskDTO{Title: title})
	}
	return w
}

// patchBody builds the JSON object of a task update. Only set fields are
// sent; a cleared deadline is sent as null.
func patchBody(p TaskPatch) map[string]any {
	body := map[string]any{}
	if p.Title != nil {
		body["title"] = *p.Title
	}
	if p.Description != nil {
		body["description"] = *p.Description
	}
	if p.ClearDeadline {
		body["deadline"] = nil
	}
	if p.Deadline != nil {
		body["deadline"] = dateOf(p.Deadline)
	}
	if p.Status != nil {
		body["status"] = string(*p.Status)
	}
	if p.Priority != nil {
		body["piority"] = string(*p.Priority)
	}
	if p.SubTasks != nil {
		subs := make([]subTaskDTO, len(p.SubTasks))
		for i, st := range p.SubTasks {
			subs[i] = subTaskDTO{Title: st.Title, Done: st.Done}
			if !st.Pending && !model.IsPendingID(st.ID) {
				subs[i].ID = st.ID
			}
		}
		body["subTasks"] = subs
	}
	if p.ColumnID != nil {
		body["column_id"] = *p.ColumnID
	}
	return body
}

func columnInputs(in []ColumnInput) []columnDTO {
	out := make([]columnDTO, len(in))
	for i, c := range in {
		out[i] = columnDTO{Title: c.Title}
		if !model.IsPendingID(c.ID) {
			out[i].ID = c.ID
		}
	}
	return out
}
