package memstore

import (
	"cmp"
	"context"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/bigkaa/opengamelist/internal/domain/model"
	"github.com/bigkaa/opengamelist/internal/repository"
)

// itemRepo — реализация repository.ItemRepository.
type itemRepo struct {
	accessor
}

func (r *itemRepo) Create(ctx context.Context, it *model.Item) error {
	return r.write(ctx, func(st *state) error {
		if _, ok := st.users[it.UserID]; !ok {
			return fmt.Errorf("%w: владелец %s не существует", repository.ErrReference, it.UserID)
		}

		now := r.now()
		it.ID = st.nextItemID
		it.ViewCount = 0
		it.CreatedAt, it.LastModifiedAt = now, now
		st.nextItemID++

		stored := *it
		st.items[it.ID] = &stored
		return nil
	})
}

func (r *itemRepo) GetByID(ctx context.Context, id int64) (*model.Item, error) {
	var out *model.Item
	err := r.read(ctx, func(st *state) error {
		it, ok := st.items[id]
		if !ok {
			return repository.ErrNotFound
		}
		cp := *it
		out = &cp
		return nil
	})
	return out, err
}

// GetForUpdate совпадает с GetByID: внутри транзакции хранилище
// уже заблокировано целиком.
func (r *itemRepo) GetForUpdate(ctx context.Context, id int64) (*model.Item, error) {
	return r.GetByID(ctx, id)
}

// GetForShare совпадает с GetByID по той же причине.
func (r *itemRepo) GetForShare(ctx context.Context, id int64) (*model.Item, error) {
	return r.GetByID(ctx, id)
}

func (r *itemRepo) Update(ctx context.Context, it *model.Item) error {
	return r.write(ctx, func(st *state) error {
		old, ok := st.items[it.ID]
		if !ok {
			return repository.ErrNotFound
		}

		it.UserID = old.UserID
		it.ViewCount = old.ViewCount
		it.CreatedAt = old.CreatedAt
		it.LastModifiedAt = r.now()
		stored := *it
		st.items[it.ID] = &stored
		return nil
	})
}

func (r *itemRepo) Delete(ctx context.Context, id int64) error {
	return r.write(ctx, func(st *state) error {
		if _, ok := st.items[id]; !ok {
			return repository.ErrNotFound
		}
		deleteItem(st, id)
		return nil
	})
}

// deleteItem удаляет игру и все её комментарии.
func deleteItem(st *state, id int64) {
	for _, cid := range st.itemComments[id] {
		delete(st.children, cid)
		delete(st.comments, cid)
	}
	delete(st.itemComments, id)
	delete(st.items, id)
}

func (r *itemRepo) IncrementViewCount(ctx context.Context, id int64) (*model.Item, error) {
	var out *model.Item
	err := r.write(ctx, func(st *state) error {
		old, ok := st.items[id]
		if !ok {
			return repository.ErrNotFound
		}
		updated := *old
		updated.ViewCount++
		st.items[id] = &updated

		cp := updated
		out = &cp
		return nil
	})
	return out, err
}

func (r *itemRepo) Latest(ctx context.Context, n int) ([]*model.Item, error) {
	return r.sorted(ctx, n, func(a, b *model.Item) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
}

func (r *itemRepo) MostViewed(ctx context.Context, n int) ([]*model.Item, error) {
	return r.sorted(ctx, n, func(a, b *model.Item) int {
		if c := cmp.Compare(b.ViewCount, a.ViewCount); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
}

func (r *itemRepo) sorted(ctx context.Context, n int, compare func(a, b *model.Item) int) ([]*model.Item, error) {
	var out []*model.Item
	err := r.read(ctx, func(st *state) error {
		all := snapshotItems(st)
		slices.SortFunc(all, compare)
		out = all[:min(n, len(all))]
		return nil
	})
	return out, err
}

// Random выбирает min(n, всего) игр без повторений частичной
// перетасовкой Фишера–Йетса.
func (r *itemRepo) Random(ctx context.Context, n int) ([]*model.Item, error) {
	var out []*model.Item
	err := r.read(ctx, func(st *state) error {
		all := snapshotItems(st)
		k := min(n, len(all))
		for i := 0; i < k; i++ {
			j := i + rand.IntN(len(all)-i)
			all[i], all[j] = all[j], all[i]
		}
		out = all[:k]
		return nil
	})
	return out, err
}

func snapshotItems(st *state) []*model.Item {
	all := make([]*model.Item, 0, len(st.items))
	for _, it := range st.items {
		cp := *it
		all = append(all, &cp)
	}
	return all
}
