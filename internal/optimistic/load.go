package optimistic

import (
	"context"

	"github.com/dori/plando/internal/model"
	"github.com/dori/plando/internal/notify"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentFetches caps the task list requests of one board load
const maxConcurrentFetches = 4

// LoadKind says what a LoadResult carries
type LoadKind int

const (
	LoadNone LoadKind = iota
	LoadBoards
	LoadBoard
	LoadColumnTasks
)

// LoadResult is fetched data waiting to be applied on the loop
type LoadResult struct {
	Kind     LoadKind
	BoardID  string
	ColumnID string
	Boards   []model.Board
	Board    model.Board
	Tasks    []model.Task
	Err      error
}

// LoadBoards fetches the board list. It does not touch the store.
func (c *Coordinator) LoadBoards(ctx context.Context) LoadResult {
	boards, err := c.svc.ListBoards(ctx)
	return LoadResult{Kind: LoadBoards, Boards: boards, Err: err}
}

// LoadBoard fetches a board with its columns and every column's tasks.
// Task lists are fetched concurrently. It does not touch the store.
func (c *Coordinator) LoadBoard(ctx context.Context, boardID string) LoadResult {
	res := LoadResult{Kind: LoadBoard, BoardID: boardID}
	if boardID == "" || model.IsPendingID(boardID) {
		res.Kind = LoadNone
		return res
	}

	var (
		b    model.Board
		cols []model.Column
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		b, err = c.svc.GetBoard(gctx, boardID)
		return err
	})
	g.Go(func() error {
		var err error
		cols, err = c.svc.ListColumns(gctx, boardID)
		return err
	})
	if err := g.Wait(); err != nil {
		res.Err = err
		return res
	}

	// the column list is authoritative for order
	b.Columns = cols
	tg, tctx := errgroup.WithContext(ctx)
	tg.SetLimit(maxConcurrentFetches)
	for i := range b.Columns {
		tg.Go(func() error {
			tasks, err := c.svc.ListTasks(tctx, boardID, b.Columns[i].ID)
			if err != nil {
				return err
			}
			if tasks == nil {
				tasks = []model.Task{}
			}
			b.Columns[i].Tasks = tasks
			b.Columns[i].TasksLoaded = true
			return nil
		})
	}
	if err := tg.Wait(); err != nil {
		res.Err = err
		return res
	}

	res.Board = b
	return res
}

// LoadColumnTasks fetches one column's tasks. It does not touch the store.
func (c *Coordinator) LoadColumnTasks(ctx context.Context, boardID, columnID string) LoadResult {
	res := LoadResult{Kind: LoadColumnTasks, BoardID: boardID, ColumnID: columnID}
	if model.IsPendingID(boardID) || model.IsPendingID(columnID) {
		res.Kind = LoadNone
		return res
	}
	res.Tasks, res.Err = c.svc.ListTasks(ctx, boardID, columnID)
	return res
}

// ApplyLoad writes fetched data into the store. It must run on the loop
// that owns the store. A failed fetch is notified and returned; nothing is
// rolled back because nothing was written.
func (c *Coordinator) ApplyLoad(res LoadResult) error {
	log := c.logger.With().
		Str("board_id", res.BoardID).
		Str("column_id", res.ColumnID).
		Logger()

	if res.Err != nil {
		entity := notify.EntityBoard
		if res.Kind == LoadColumnTasks {
			entity = notify.EntityTask
		}
		log.Error().Err(res.Err).Msg("load failed")
		c.notes.Failure(entity, notify.ActionLoad, "")
		return res.Err
	}

	switch res.Kind {
	case LoadBoards:
		c.st.ReplaceBoards(res.Boards)
		log.Debug().Int("boards", len(res.Boards)).Msg("boards loaded")
	case LoadBoard:
		c.st.ReplaceBoard(res.Board)
		log.Debug().Int("tasks", res.Board.TaskCount()).Msg("board loaded")
	case LoadColumnTasks:
		if err := c.st.SetColumnTasks(res.BoardID, res.ColumnID, res.Tasks); err != nil {
			log.Warn().Err(err).Msg("loaded tasks for a column that is gone")
		}
	}
	return nil
}
