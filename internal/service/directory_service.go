package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"crowdfund/internal/config"
	"crowdfund/internal/model"
	"crowdfund/internal/repository"
	"crowdfund/pkg/idgen"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DirectoryService 用户与项目目录：注册、审核、查询
type DirectoryService struct {
	store    repository.Store
	notifier *NotificationService
}

func NewDirectoryService(store repository.Store, notifier *NotificationService) *DirectoryService {
	return &DirectoryService{store: store, notifier: notifier}
}

type RegisterUserRequest struct {
	Email string     `json:"email" binding:"required"`
	Name  string     `json:"name" binding:"required"`
	Role  model.Role `json:"role" binding:"required"`
}

// RegisterUser 新用户待审核，同时通知管理员
func (s *DirectoryService) RegisterUser(ctx context.Context, req *RegisterUserRequest) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(req.Name)
	if !strings.Contains(email, "@") {
		return nil, invalid("email", "邮箱格式不正确")
	}
	if name == "" {
		return nil, invalid("name", "不能为空")
	}
	if req.Role != model.RoleInvestor && req.Role != model.RoleOwner {
		return nil, invalid("role", "只能注册为 investor 或 owner")
	}

	user := &model.User{
		ID:     uuid.NewString(),
		Email:  email,
		Name:   name,
		Role:   req.Role,
		Status: model.StatusPending,
	}
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := tx.Users().GetByEmail(ctx, email); err == nil {
			return invalid("email", "该邮箱已注册")
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			return fmt.Errorf("查询用户失败: %w", err)
		}
		// 唯一索引兜底并发注册
		if err := tx.Users().Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrEmailExists) {
				return invalid("email", "该邮箱已注册")
			}
			return fmt.Errorf("保存用户失败: %w", err)
		}
		_, err := s.notifier.Emit(ctx, tx, model.AdminTarget, model.NotificationNewUser,
			"新用户注册", fmt.Sprintf("%s (%s) 注册为 %s，等待审核", user.Name, user.Email, user.Role))
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[DirectoryService] 用户注册: id=%s, role=%s", user.ID, user.Role)
	return user, nil
}

// ReviewUser 审核用户并通知本人
func (s *DirectoryService) ReviewUser(ctx context.Context, userID string, approve bool) (*model.User, error) {
	var user *model.User
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		user, err = getUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		if user.Role == model.RoleAdmin {
			return invalid("user_id", "管理员账号无需审核")
		}

		typ, title, message := model.NotificationAccountApproved, "账号已通过审核", "您的账号已通过审核，现在可以使用全部功能"
		user.Status = model.StatusApproved
		if !approve {
			typ, title, message = model.NotificationAccountRejected, "账号未通过审核", "很抱歉，您的账号未通过审核"
			user.Status = model.StatusRejected
		}
		if err := tx.Users().Upsert(ctx, user); err != nil {
			return fmt.Errorf("保存用户失败: %w", err)
		}
		_, err = s.notifier.Emit(ctx, tx, user.ID, typ, title, message)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

type CreateProjectRequest struct {
	OwnerID      string          `json:"owner_id" binding:"required"`
	Name         string          `json:"name" binding:"required"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
	Location     string          `json:"location"`
	TargetAmount int64           `json:"target_amount"`
	ReturnRate   decimal.Decimal `json:"return_rate"`
	PeriodMonths int             `json:"period_months"`
}

// CreateProject 项目方提交项目，待管理员审核
func (s *DirectoryService) CreateProject(ctx context.Context, req *CreateProjectRequest) (*model.Project, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, invalid("name", "不能为空")
	}
	if req.TargetAmount <= 0 {
		return nil, invalid("target_amount", "必须大于0")
	}
	if req.ReturnRate.IsNegative() || req.ReturnRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, invalid("return_rate", "必须在 0 到 1 之间")
	}
	if req.PeriodMonths <= 0 {
		return nil, invalid("period_months", "必须大于0")
	}

	owner, err := s.GetUser(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}
	if owner.Role != model.RoleOwner {
		return nil, invalid("owner_id", "只有项目方可以创建项目")
	}

	project := &model.Project{
		ID:           idgen.GenerateProjectNo(),
		OwnerID:      owner.ID,
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		Category:     req.Category,
		Location:     req.Location,
		TargetAmount: req.TargetAmount,
		ReturnRate:   req.ReturnRate,
		PeriodMonths: req.PeriodMonths,
		Status:       model.StatusPending,
	}
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Projects().Upsert(ctx, project); err != nil {
			return fmt.Errorf("保存项目失败: %w", err)
		}
		_, err := s.notifier.Emit(ctx, tx, model.AdminTarget, model.NotificationNewProject,
			"新项目待审核", fmt.Sprintf("%s 提交了项目「%s」，目标金额 %d", owner.Name, project.Name, project.TargetAmount))
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[DirectoryService] 项目创建: id=%s, owner=%s", project.ID, owner.ID)
	return project, nil
}

// ReviewProject 审核项目并通知项目方。已有投资的项目不重置募集金额
func (s *DirectoryService) ReviewProject(ctx context.Context, projectID string, approve bool) (*model.Project, error) {
	var project *model.Project
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		project, err = lockProject(ctx, tx, projectID)
		if err != nil {
			return err
		}

		typ, title := model.NotificationProjectApproved, "项目已通过审核"
		message := fmt.Sprintf("您的项目「%s」已通过审核，开始接受投资", project.Name)
		project.Status = model.StatusApproved
		if !approve {
			typ, title = model.NotificationProjectRejected, "项目未通过审核"
			message = fmt.Sprintf("很抱歉，您的项目「%s」未通过审核", project.Name)
			project.Status = model.StatusRejected
		}

		if approve {
			invested, err := tx.Investments().SumByProject(ctx, project.ID)
			if err != nil {
				return fmt.Errorf("统计投资失败: %w", err)
			}
			if invested == 0 {
				project.CurrentAmount = 0
			}
		}
		if err := tx.Projects().Upsert(ctx, project); err != nil {
			return fmt.Errorf("保存项目失败: %w", err)
		}
		_, err = s.notifier.Emit(ctx, tx, project.OwnerID, typ, title, message)
		return err
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

func (s *DirectoryService) GetUser(ctx context.Context, id string) (*model.User, error) {
	return getUser(ctx, s.store, id)
}

func (s *DirectoryService) GetProject(ctx context.Context, id string) (*model.Project, error) {
	return getProject(ctx, s.store, id)
}

// SaveProject 保存项目资料。募集金额只由投资累加，这里以库中当前值为准
func (s *DirectoryService) SaveProject(ctx context.Context, project *model.Project) error {
	return s.store.Transaction(ctx, func(tx repository.Store) error {
		current, err := tx.Projects().GetForUpdate(ctx, project.ID)
		switch {
		case err == nil:
			project.CurrentAmount = current.CurrentAmount
		case !errors.Is(err, repository.ErrProjectNotFound):
			return fmt.Errorf("查询项目失败: %w", err)
		}
		if err := tx.Projects().Upsert(ctx, project); err != nil {
			return fmt.Errorf("保存项目失败: %w", err)
		}
		return nil
	})
}

func (s *DirectoryService) ListProjects(ctx context.Context, filter repository.ProjectFilter) ([]*model.Project, error) {
	return s.store.Projects().List(ctx, filter)
}

// SeedAdmin 启动时确保管理员账号存在
func (s *DirectoryService) SeedAdmin(ctx context.Context, cfg *config.SeedConfig) error {
	if cfg.AdminID == "" {
		return nil
	}
	_, err := s.store.Users().Get(ctx, cfg.AdminID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return fmt.Errorf("查询管理员失败: %w", err)
	}

	admin := &model.User{
		ID:        cfg.AdminID,
		Email:     cfg.AdminEmail,
		Name:      "Administrator",
		Role:      model.RoleAdmin,
		Status:    model.StatusApproved,
		CreatedAt: time.Now(),
	}
	if err := s.store.Users().Upsert(ctx, admin); err != nil {
		return fmt.Errorf("创建管理员失败: %w", err)
	}
	log.Printf("[DirectoryService] 已创建管理员账号: %s", admin.ID)
	return nil
}

func getUser(ctx context.Context, store repository.Store, id string) (*model.User, error) {
	user, err := store.Users().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, &NotFoundError{Entity: EntityUser, ID: id}
		}
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	return user, nil
}

func getProject(ctx context.Context, store repository.Store, id string) (*model.Project, error) {
	project, err := store.Projects().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return nil, &NotFoundError{Entity: EntityProject, ID: id}
		}
		return nil, fmt.Errorf("查询项目失败: %w", err)
	}
	return project, nil
}

func lockProject(ctx context.Context, tx repository.Store, id string) (*model.Project, error) {
	project, err := tx.Projects().GetForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return nil, &NotFoundError{Entity: EntityProject, ID: id}
		}
		return nil, fmt.Errorf("查询项目失败: %w", err)
	}
	return project, nil
}
