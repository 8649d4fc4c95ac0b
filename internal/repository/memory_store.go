package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"crowdfund/internal/model"
)

// MemoryStore 单进程内嵌账本存储
//
// 每次写入都在数据副本上执行，成功后整体替换，因此失败的事务不会留下任何痕迹。
// 配置了 path 时，每次提交后把全部集合写入一个 JSON 文档，启动时再读回。
type MemoryStore struct {
	mu   sync.RWMutex
	data *memoryData
	path string
	inTx bool
}

type memoryData struct {
	users         map[string]*model.User
	userOrder     []string
	projects      map[string]*model.Project
	projectOrder  []string
	wallets       map[string]*model.Wallet
	walletOrder   []string
	investments   []*model.Investment
	transactions  []*model.Transaction
	notifications []*model.Notification // 最新的在前
	outbox        []*model.OutboxMessage
	outboxSeq     int64
}

// memorySnapshot 持久化格式，集合按命名空间键保存
type memorySnapshot struct {
	Users         []*model.User          `json:"crowdfund_users"`
	Projects      []*model.Project       `json:"crowdfund_projects"`
	Investments   []*model.Investment    `json:"crowdfund_investments"`
	Transactions  []*model.Transaction   `json:"crowdfund_transactions"`
	Wallets       []*model.Wallet        `json:"crowdfund_wallets"`
	Notifications []*model.Notification  `json:"crowdfund_notifications"`
	Outbox        []*model.OutboxMessage `json:"crowdfund_outbox"`
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: newMemoryData()}
}

// NewFileStore 打开（或新建）path 处的 JSON 账本文件
func NewFileStore(path string) (*MemoryStore, error) {
	s := &MemoryStore{data: newMemoryData(), path: path}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("读取账本文件失败: %w", err)
	}

	var snap memorySnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("解析账本文件失败: %w", err)
	}
	s.data = snap.restore()
	return s, nil
}

func newMemoryData() *memoryData {
	return &memoryData{
		users:    make(map[string]*model.User),
		projects: make(map[string]*model.Project),
		wallets:  make(map[string]*model.Wallet),
	}
}

func (d *memoryData) clone() *memoryData {
	c := &memoryData{
		users:         make(map[string]*model.User, len(d.users)),
		userOrder:     append([]string(nil), d.userOrder...),
		projects:      make(map[string]*model.Project, len(d.projects)),
		projectOrder:  append([]string(nil), d.projectOrder...),
		wallets:       make(map[string]*model.Wallet, len(d.wallets)),
		walletOrder:   append([]string(nil), d.walletOrder...),
		investments:   make([]*model.Investment, len(d.investments)),
		transactions:  make([]*model.Transaction, len(d.transactions)),
		notifications: make([]*model.Notification, len(d.notifications)),
		outbox:        make([]*model.OutboxMessage, len(d.outbox)),
		outboxSeq:     d.outboxSeq,
	}
	for k, v := range d.users {
		u := *v
		c.users[k] = &u
	}
	for k, v := range d.projects {
		p := *v
		c.projects[k] = &p
	}
	for k, v := range d.wallets {
		w := *v
		c.wallets[k] = &w
	}
	for i, v := range d.investments {
		inv := *v
		c.investments[i] = &inv
	}
	for i, v := range d.transactions {
		t := *v
		c.transactions[i] = &t
	}
	for i, v := range d.notifications {
		n := *v
		c.notifications[i] = &n
	}
	for i, v := range d.outbox {
		m := *v
		c.outbox[i] = &m
	}
	return c
}

func (d *memoryData) snapshot() *memorySnapshot {
	snap := &memorySnapshot{
		Users:         make([]*model.User, 0, len(d.userOrder)),
		Projects:      make([]*model.Project, 0, len(d.projectOrder)),
		Wallets:       make([]*model.Wallet, 0, len(d.walletOrder)),
		Investments:   d.investments,
		Transactions:  d.transactions,
		Notifications: d.notifications,
		Outbox:        d.outbox,
	}
	for _, id := range d.userOrder {
		snap.Users = append(snap.Users, d.users[id])
	}
	for _, id := range d.projectOrder {
		snap.Projects = append(snap.Projects, d.projects[id])
	}
	for _, id := range d.walletOrder {
		snap.Wallets = append(snap.Wallets, d.wallets[id])
	}
	return snap
}

func (snap *memorySnapshot) restore() *memoryData {
	d := newMemoryData()
	for _, u := range snap.Users {
		d.users[u.ID] = u
		d.userOrder = append(d.userOrder, u.ID)
	}
	for _, p := range snap.Projects {
		d.projects[p.ID] = p
		d.projectOrder = append(d.projectOrder, p.ID)
	}
	for _, w := range snap.Wallets {
		d.wallets[w.UserID] = w
		d.walletOrder = append(d.walletOrder, w.UserID)
	}
	d.investments = snap.Investments
	d.transactions = snap.Transactions
	d.notifications = snap.Notifications
	d.outbox = snap.Outbox
	for _, m := range d.outbox {
		if m.ID > d.outboxSeq {
			d.outboxSeq = m.ID
		}
	}
	return d
}

func (s *MemoryStore) persist(d *memoryData) error {
	if s.path == "" {
		return nil
	}

	raw, err := json.MarshalIndent(d.snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("序列化账本失败: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("创建账本目录失败: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("写入账本文件失败: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *MemoryStore) view(fn func(d *memoryData)) {
	if !s.inTx {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	fn(s.data)
}

func (s *MemoryStore) update(ctx context.Context, fn func(d *memoryData) error) error {
	if s.inTx {
		return fn(s.data)
	}
	return s.commit(ctx, fn)
}

func (s *MemoryStore) commit(ctx context.Context, fn func(d *memoryData) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.data.clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := s.persist(next); err != nil {
		return err
	}
	s.data = next
	return nil
}

func (s *MemoryStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.commit(ctx, func(d *memoryData) error {
		return fn(&MemoryStore{data: d, inTx: true})
	})
}

func (s *MemoryStore) Users() UserRepository                 { return memUsers{s} }
func (s *MemoryStore) Projects() ProjectRepository           { return memProjects{s} }
func (s *MemoryStore) Investments() InvestmentRepository     { return memInvestments{s} }
func (s *MemoryStore) Transactions() TransactionRepository   { return memTransactions{s} }
func (s *MemoryStore) Wallets() WalletRepository             { return memWallets{s} }
func (s *MemoryStore) Notifications() NotificationRepository { return memNotifications{s} }
func (s *MemoryStore) Outbox() OutboxRepository              { return memOutbox{s} }

func stamp(created, updated *time.Time) {
	now := time.Now()
	if created != nil && created.IsZero() {
		*created = now
	}
	if updated != nil {
		*updated = now
	}
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

type memUsers struct{ s *MemoryStore }

func (r memUsers) Get(ctx context.Context, id string) (*model.User, error) {
	var out *model.User
	r.s.view(func(d *memoryData) {
		if u, ok := d.users[id]; ok {
			c := *u
			out = &c
		}
	})
	if out == nil {
		return nil, ErrUserNotFound
	}
	return out, nil
}

func (r memUsers) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var out *model.User
	r.s.view(func(d *memoryData) {
		for _, id := range d.userOrder {
			if u := d.users[id]; strings.EqualFold(u.Email, email) {
				c := *u
				out = &c
				return
			}
		}
	})
	if out == nil {
		return nil, ErrUserNotFound
	}
	return out, nil
}

func (r memUsers) Create(ctx context.Context, user *model.User) error {
	stamp(&user.CreatedAt, &user.UpdatedAt)
	return r.s.update(ctx, func(d *memoryData) error {
		for _, id := range d.userOrder {
			if id == user.ID || strings.EqualFold(d.users[id].Email, user.Email) {
				return ErrEmailExists
			}
		}
		d.userOrder = append(d.userOrder, user.ID)
		c := *user
		d.users[user.ID] = &c
		return nil
	})
}

func (r memUsers) Upsert(ctx context.Context, user *model.User) error {
	stamp(&user.CreatedAt, &user.UpdatedAt)
	return r.s.update(ctx, func(d *memoryData) error {
		if _, ok := d.users[user.ID]; !ok {
			d.userOrder = append(d.userOrder, user.ID)
		}
		c := *user
		d.users[user.ID] = &c
		return nil
	})
}

func (r memUsers) ListByStatus(ctx context.Context, status model.ReviewStatus) ([]*model.User, error) {
	var out []*model.User
	r.s.view(func(d *memoryData) {
		for _, id := range d.userOrder {
			if u := d.users[id]; u.Status == status {
				c := *u
				out = append(out, &c)
			}
		}
	})
	return out, nil
}

type memProjects struct{ s *MemoryStore }

func (r memProjects) Get(ctx context.Context, id string) (*model.Project, error) {
	var out *model.Project
	r.s.view(func(d *memoryData) {
		if p, ok := d.projects[id]; ok {
			c := *p
			out = &c
		}
	})
	if out == nil {
		return nil, ErrProjectNotFound
	}
	return out, nil
}

// GetForUpdate 内存实现中事务本身已串行，等同于 Get
func (r memProjects) GetForUpdate(ctx context.Context, id string) (*model.Project, error) {
	return r.Get(ctx, id)
}

func (r memProjects) Upsert(ctx context.Context, project *model.Project) error {
	stamp(&project.CreatedAt, &project.UpdatedAt)
	return r.s.update(ctx, func(d *memoryData) error {
		if _, ok := d.projects[project.ID]; !ok {
			d.projectOrder = append(d.projectOrder, project.ID)
		}
		c := *project
		d.projects[project.ID] = &c
		return nil
	})
}

func (r memProjects) List(ctx context.Context, filter ProjectFilter) ([]*model.Project, error) {
	var out []*model.Project
	r.s.view(func(d *memoryData) {
		for i := len(d.projectOrder) - 1; i >= 0; i-- {
			p := d.projects[d.projectOrder[i]]
			if filter.Status != "" && p.Status != filter.Status {
				continue
			}
			if filter.OwnerID != "" && p.OwnerID != filter.OwnerID {
				continue
			}
			c := *p
			out = append(out, &c)
		}
	})
	return out, nil
}

func (r memProjects) AddFunding(ctx context.Context, id string, amount int64) error {
	if amount < 0 {
		return ErrNegativeFunding
	}
	return r.s.update(ctx, func(d *memoryData) error {
		p, ok := d.projects[id]
		if !ok {
			return ErrProjectNotFound
		}
		p.CurrentAmount += amount
		p.UpdatedAt = time.Now()
		return nil
	})
}

type memInvestments struct{ s *MemoryStore }

func (r memInvestments) Create(ctx context.Context, investment *model.Investment) error {
	if investment.InvestmentDate.IsZero() {
		investment.InvestmentDate = time.Now()
	}
	return r.s.update(ctx, func(d *memoryData) error {
		c := *investment
		d.investments = append(d.investments, &c)
		return nil
	})
}

func (r memInvestments) ListByInvestor(ctx context.Context, investorID string) ([]*model.Investment, error) {
	return r.filter(func(inv *model.Investment) bool { return inv.InvestorID == investorID }), nil
}

func (r memInvestments) ListByProject(ctx context.Context, projectID string) ([]*model.Investment, error) {
	return r.filter(func(inv *model.Investment) bool { return inv.ProjectID == projectID }), nil
}

func (r memInvestments) SumByProject(ctx context.Context, projectID string) (int64, error) {
	var total int64
	for _, inv := range r.filter(func(inv *model.Investment) bool { return inv.ProjectID == projectID }) {
		if inv.Status == model.InvestmentStatusActive {
			total += inv.Amount
		}
	}
	return total, nil
}

func (r memInvestments) filter(keep func(*model.Investment) bool) []*model.Investment {
	var out []*model.Investment
	r.s.view(func(d *memoryData) {
		for _, inv := range d.investments {
			if keep(inv) {
				c := *inv
				out = append(out, &c)
			}
		}
	})
	return out
}

type memTransactions struct{ s *MemoryStore }

func (r memTransactions) Create(ctx context.Context, trans *model.Transaction) error {
	stamp(&trans.CreatedAt, &trans.UpdatedAt)
	return r.s.update(ctx, func(d *memoryData) error {
		c := *trans
		d.transactions = append(d.transactions, &c)
		return nil
	})
}

func (r memTransactions) Get(ctx context.Context, id string) (*model.Transaction, error) {
	var out *model.Transaction
	r.s.view(func(d *memoryData) {
		for _, t := range d.transactions {
			if t.ID == id {
				c := *t
				out = &c
				return
			}
		}
	})
	if out == nil {
		return nil, ErrTransactionNotFound
	}
	return out, nil
}

func (r memTransactions) ListByUserID(ctx context.Context, userID string, page, pageSize int) ([]*model.Transaction, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	var all []*model.Transaction
	r.s.view(func(d *memoryData) {
		for i := len(d.transactions) - 1; i >= 0; i-- {
			if t := d.transactions[i]; t.UserID == userID {
				c := *t
				all = append(all, &c)
			}
		}
	})

	total := int64(len(all))
	start := (page - 1) * pageSize
	if start >= len(all) {
		return []*model.Transaction{}, total, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r memTransactions) UpdateStatus(ctx context.Context, id string, fromStatus, toStatus model.TransactionStatus) error {
	if !model.CanTransitionTo(fromStatus, toStatus) {
		return ErrStatusTransition
	}
	return r.s.update(ctx, func(d *memoryData) error {
		for _, t := range d.transactions {
			if t.ID != id {
				continue
			}
			if t.Status != fromStatus {
				return ErrStatusTransition
			}
			t.Status = toStatus
			t.UpdatedAt = time.Now()
			return nil
		}
		return ErrTransactionNotFound
	})
}

type memWallets struct{ s *MemoryStore }

func (r memWallets) Get(ctx context.Context, userID string) (*model.Wallet, error) {
	var out *model.Wallet
	r.s.view(func(d *memoryData) {
		if w, ok := d.wallets[userID]; ok {
			c := *w
			out = &c
		}
	})
	if out == nil {
		return nil, ErrWalletNotFound
	}
	return out, nil
}

// GetForUpdate 内存实现中事务本身已串行，等同于 Get
func (r memWallets) GetForUpdate(ctx context.Context, userID string) (*model.Wallet, error) {
	return r.Get(ctx, userID)
}

func (r memWallets) Upsert(ctx context.Context, wallet *model.Wallet) error {
	stamp(&wallet.CreatedAt, &wallet.UpdatedAt)
	wallet.Version++
	return r.s.update(ctx, func(d *memoryData) error {
		if _, ok := d.wallets[wallet.UserID]; !ok {
			d.walletOrder = append(d.walletOrder, wallet.UserID)
		}
		c := *wallet
		d.wallets[wallet.UserID] = &c
		return nil
	})
}

type memNotifications struct{ s *MemoryStore }

func (r memNotifications) Create(ctx context.Context, notification *model.Notification) error {
	stamp(&notification.CreatedAt, nil)
	return r.s.update(ctx, func(d *memoryData) error {
		c := *notification
		d.notifications = append([]*model.Notification{&c}, d.notifications...)
		return nil
	})
}

func (r memNotifications) ListForTargets(ctx context.Context, targets []string, limit int) ([]*model.Notification, error) {
	var out []*model.Notification
	r.s.view(func(d *memoryData) {
		for _, n := range d.notifications {
			if !containsString(targets, n.TargetUser) {
				continue
			}
			c := *n
			out = append(out, &c)
			if limit > 0 && len(out) == limit {
				return
			}
		}
	})
	return out, nil
}

func (r memNotifications) MarkRead(ctx context.Context, ids []string, targets []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var changed int64
	err := r.s.update(ctx, func(d *memoryData) error {
		changed = 0
		for _, n := range d.notifications {
			if !n.Read && containsString(ids, n.ID) && containsString(targets, n.TargetUser) {
				n.Read = true
				changed++
			}
		}
		return nil
	})
	return changed, err
}

func (r memNotifications) CountUnread(ctx context.Context, targets []string) (int64, error) {
	var count int64
	r.s.view(func(d *memoryData) {
		for _, n := range d.notifications {
			if !n.Read && containsString(targets, n.TargetUser) {
				count++
			}
		}
	})
	return count, nil
}

type memOutbox struct{ s *MemoryStore }

func (r memOutbox) Create(ctx context.Context, msg *model.OutboxMessage) error {
	if msg.Status == "" {
		msg.Status = model.OutboxStatusPending
	}
	stamp(&msg.CreatedAt, &msg.UpdatedAt)
	return r.s.update(ctx, func(d *memoryData) error {
		d.outboxSeq++
		msg.ID = d.outboxSeq
		c := *msg
		d.outbox = append(d.outbox, &c)
		return nil
	})
}

func (r memOutbox) GetPendingMessages(ctx context.Context, limit int) ([]*model.OutboxMessage, error) {
	var out []*model.OutboxMessage
	r.s.view(func(d *memoryData) {
		for _, m := range d.outbox {
			if m.Status != model.OutboxStatusPending {
				continue
			}
			c := *m
			out = append(out, &c)
			if limit > 0 && len(out) == limit {
				return
			}
		}
	})
	return out, nil
}

func (r memOutbox) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.modify(ctx, id, func(m *model.OutboxMessage) { m.Status = status })
}

func (r memOutbox) IncrementRetryCount(ctx context.Context, id int64) error {
	return r.modify(ctx, id, func(m *model.OutboxMessage) { m.RetryCount++ })
}

func (r memOutbox) MarkAsFailed(ctx context.Context, id int64) error {
	return r.modify(ctx, id, func(m *model.OutboxMessage) {
		m.Status = model.OutboxStatusFailed
		m.RetryCount++
	})
}

func (r memOutbox) modify(ctx context.Context, id int64, fn func(m *model.OutboxMessage)) error {
	return r.s.update(ctx, func(d *memoryData) error {
		for _, m := range d.outbox {
			if m.ID == id {
				fn(m)
				m.UpdatedAt = time.Now()
				return nil
			}
		}
		return nil
	})
}
