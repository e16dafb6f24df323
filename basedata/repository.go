package basedata

import (
	"context"
)

// Repository is the typed store for one reference data type.
type Repository[T any] interface {
	Create(ctx context.Context, payload Payload) (T, error)
	// Update writes name and description. Id and code never change.
	Update(ctx context.Context, id int64, payload Payload) (T, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (T, error)
	// FindByCode reports found=false for a blank code or a missing row.
	FindByCode(ctx context.Context, code string) (T, bool, error)
	GetByCode(ctx context.Context, code string) (T, error)
	GetAll(ctx context.Context) ([]T, error)
}

// Store is the untyped view used when the type is only known by name.
type Store interface {
	Repository[Base]
	Type() string
}

// storeView projects a typed repository onto Base. Both views share the
// same repository, so they read and evict the same cache entries.
type storeView[T any, PT Model[T]] struct {
	typeName string
	repo     Repository[T]
}

var _ Store = (*storeView[Base, *Base])(nil)

func (s *storeView[T, PT]) Type() string { return s.typeName }

func (s *storeView[T, PT]) Create(ctx context.Context, payload Payload) (Base, error) {
	row, err := s.repo.Create(ctx, payload)
	if err != nil {
		return Base{}, err
	}
	return baseOf[T, PT](row), nil
}

func (s *storeView[T, PT]) Update(ctx context.Context, id int64, payload Payload) (Base, error) {
	row, err := s.repo.Update(ctx, id, payload)
	if err != nil {
		return Base{}, err
	}
	return baseOf[T, PT](row), nil
}

func (s *storeView[T, PT]) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *storeView[T, PT]) GetByID(ctx context.Context, id int64) (Base, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Base{}, err
	}
	return baseOf[T, PT](row), nil
}

func (s *storeView[T, PT]) FindByCode(ctx context.Context, code string) (Base, bool, error) {
	row, ok, err := s.repo.FindByCode(ctx, code)
	if err != nil || !ok {
		return Base{}, ok, err
	}
	return baseOf[T, PT](row), true, nil
}

func (s *storeView[T, PT]) GetByCode(ctx context.Context, code string) (Base, error) {
	row, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return Base{}, err
	}
	return baseOf[T, PT](row), nil
}

func (s *storeView[T, PT]) GetAll(ctx context.Context) ([]Base, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Base, len(rows))
	for i, row := range rows {
		out[i] = baseOf[T, PT](row)
	}
	return out, nil
}
