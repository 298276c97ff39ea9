package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	franchiseedomain "github.com/treadstone/maxtt-billing/internal/franchisee/domain"
	"github.com/treadstone/maxtt-billing/pkg/db/option"
	"github.com/treadstone/maxtt-billing/pkg/repository"
)

type ServiceParam struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo repository.Repository[franchiseedomain.Profile]
}

func NewService(p ServiceParam) franchiseedomain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("franchisee.service"),
		repo: repository.ProvideStore[franchiseedomain.Profile](p.DB),
	}
}

func (s *Service) Default(ctx context.Context) (*franchiseedomain.Profile, error) {
	profile, err := s.repo.FindOne(ctx, &franchiseedomain.Profile{},
		option.WithSortBy(option.QuerySortBy{Field: "id"}),
	)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, franchiseedomain.ErrProfileNotFound
	}
	return profile, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*franchiseedomain.Profile, error) {
	profile, err := s.repo.FindOne(ctx, &franchiseedomain.Profile{ID: id})
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, franchiseedomain.ErrProfileNotFound
	}
	return profile, nil
}

func (s *Service) GetByCode(ctx context.Context, code string) (*franchiseedomain.Profile, error) {
	profile, err := s.repo.FindOne(ctx, &franchiseedomain.Profile{Code: code})
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, franchiseedomain.ErrProfileNotFound
	}
	return profile, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req franchiseedomain.UpdateProfileRequest) (*franchiseedomain.Profile, error) {
	profile, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		profile.Name = req.Name
	}
	profile.GSTIN = req.GSTIN
	profile.State = req.State
	profile.Address = req.Address
	profile.Phone = req.Phone

	if err := s.repo.Update(ctx, profile.ID.String(), profile); err != nil {
		return nil, err
	}

	s.log.Info("franchisee profile updated", zap.String("franchisee_id", profile.ID.String()))
	return profile, nil
}
