package memstore

import (
	"context"
	"fmt"

	"github.com/bigkaa/opengamelist/internal/domain/model"
	"github.com/bigkaa/opengamelist/internal/repository"
)

// commentRepo — реализация repository.CommentRepository.
type commentRepo struct {
	accessor
}

func (r *commentRepo) Create(ctx context.Context, c *model.Comment) error {
	return r.write(ctx, func(st *state) error {
		if _, ok := st.items[c.ItemID]; !ok {
			return fmt.Errorf("%w: игра %d не существует", repository.ErrReference, c.ItemID)
		}
		if _, ok := st.users[c.UserID]; !ok {
			return fmt.Errorf("%w: автор %s не существует", repository.ErrReference, c.UserID)
		}
		if c.ParentID != nil {
			if _, ok := st.comments[*c.ParentID]; !ok {
				return fmt.Errorf("%w: родительский комментарий %d не существует", repository.ErrReference, *c.ParentID)
			}
		}

		now := r.now()
		c.ID = st.nextCommentID
		c.CreatedAt, c.LastModifiedAt = now, now
		st.nextCommentID++

		stored := *c
		st.comments[c.ID] = &stored
		st.itemComments[c.ItemID] = append(st.itemComments[c.ItemID], c.ID)
		if c.ParentID != nil {
			st.children[*c.ParentID] = append(st.children[*c.ParentID], c.ID)
		}
		return nil
	})
}

func (r *commentRepo) GetByID(ctx context.Context, id int64) (*model.Comment, error) {
	var out *model.Comment
	err := r.read(ctx, func(st *state) error {
		c, ok := st.comments[id]
		if !ok {
			return repository.ErrNotFound
		}
		cp := *c
		out = &cp
		return nil
	})
	return out, err
}

// GetForUpdate совпадает с GetByID: внутри транзакции хранилище
// уже заблокировано целиком.
func (r *commentRepo) GetForUpdate(ctx context.Context, id int64) (*model.Comment, error) {
	return r.GetByID(ctx, id)
}

func (r *commentRepo) Update(ctx context.Context, c *model.Comment) error {
	return r.write(ctx, func(st *state) error {
		old, ok := st.comments[c.ID]
		if !ok {
			return repository.ErrNotFound
		}

		c.ItemID = old.ItemID
		c.UserID = old.UserID
		c.ParentID = old.ParentID
		c.CreatedAt = old.CreatedAt
		c.LastModifiedAt = r.now()
		stored := *c
		st.comments[c.ID] = &stored
		return nil
	})
}

func (r *commentRepo) Delete(ctx context.Context, id int64) error {
	return r.write(ctx, func(st *state) error {
		c, ok := st.comments[id]
		if !ok {
			return repository.ErrNotFound
		}
		if len(st.children[id]) > 0 {
			return fmt.Errorf("%w: у комментария есть ответы", repository.ErrConflict)
		}

		if c.ParentID != nil {
			st.children[*c.ParentID] = removeID(st.children[*c.ParentID], id)
		}
		st.itemComments[c.ItemID] = removeID(st.itemComments[c.ItemID], id)
		delete(st.children, id)
		delete(st.comments, id)
		return nil
	})
}

func (r *commentRepo) ListChildren(ctx context.Context, parentID int64) ([]*model.Comment, error) {
	var out []*model.Comment
	err := r.read(ctx, func(st *state) error {
		out = collect(st, st.children[parentID])
		return nil
	})
	return out, err
}

func (r *commentRepo) ListByItem(ctx context.Context, itemID int64) ([]*model.Comment, error) {
	var out []*model.Comment
	err := r.read(ctx, func(st *state) error {
		out = collect(st, st.itemComments[itemID])
		return nil
	})
	return out, err
}

func (r *commentRepo) CountChildren(ctx context.Context, parentID int64) (int, error) {
	var n int
	err := r.read(ctx, func(st *state) error {
		n = len(st.children[parentID])
		return nil
	})
	return n, err
}

func (r *commentRepo) CountByAuthor(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.read(ctx, func(st *state) error {
		for _, c := range st.comments {
			if c.UserID == userID {
				n++
			}
		}
		return nil
	})
	return n, err
}

// collect копирует комментарии в порядке ids (по возрастанию id).
func collect(st *state, ids []int64) []*model.Comment {
	out := make([]*model.Comment, 0, len(ids))
	for _, id := range ids {
		cp := *st.comments[id]
		out = append(out, &cp)
	}
	return out
}
