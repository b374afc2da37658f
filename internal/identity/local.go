package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Credential is a locally stored login. ID doubles as the staff id.
type Credential struct {
	ID           string    `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"not null;uniqueIndex"`
	Name         string    `gorm:"type:text"`
	PasswordHash []byte    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

type CredentialStore interface {
	Create(ctx context.Context, credential *Credential) error
	GetByEmail(ctx context.Context, email string) (*Credential, error)
	SetPasswordHash(ctx context.Context, id string, hash []byte) error
	Delete(ctx context.Context, id string) error
}

type LocalProvider struct {
	store     CredentialStore
	cost      int
	dummyOnce sync.Once
	dummyHash []byte
}

func NewLocalProvider(store CredentialStore) *LocalProvider {
	return &LocalProvider{store: store, cost: bcrypt.DefaultCost}
}

// WithCost lowers the bcrypt cost; tests use bcrypt.MinCost.
func (p *LocalProvider) WithCost(cost int) *LocalProvider {
	p.cost = cost
	return p
}

func (p *LocalProvider) Authenticate(ctx context.Context, email, password string) (Identity, error) {
	credential, err := p.store.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			// Burn comparable time so unknown emails are not distinguishable.
			_ = bcrypt.CompareHashAndPassword(p.dummy(), []byte(password))
			return Identity{}, ErrInvalidCredentials
		}
		return Identity{}, err
	}
	if err := bcrypt.CompareHashAndPassword(credential.PasswordHash, []byte(password)); err != nil {
		return Identity{}, ErrInvalidCredentials
	}
	return Identity{ID: credential.ID, Email: credential.Email, Name: credential.Name}, nil
}

func (p *LocalProvider) CreateAccount(ctx context.Context, email, password, name string) (Identity, error) {
	email = NormalizeEmail(email)
	if err := CheckPassword(password); err != nil {
		return Identity{}, err
	}

	if _, err := p.store.GetByEmail(ctx, email); err == nil {
		return Identity{}, ErrAccountExists
	} else if !errors.Is(err, ErrAccountNotFound) {
		return Identity{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return Identity{}, err
	}
	credential := Credential{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	}
	if err := p.store.Create(ctx, &credential); err != nil {
		return Identity{}, err
	}
	return Identity{ID: credential.ID, Email: credential.Email, Name: credential.Name}, nil
}

func (p *LocalProvider) LookupByEmail(ctx context.Context, email string) (Identity, error) {
	credential, err := p.store.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return Identity{}, err
	}
	return Identity{ID: credential.ID, Email: credential.Email, Name: credential.Name}, nil
}

func (p *LocalProvider) SetPassword(ctx context.Context, id, password string) error {
	if err := CheckPassword(password); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return err
	}
	return p.store.SetPasswordHash(ctx, id, hash)
}

func (p *LocalProvider) DeleteAccount(ctx context.Context, id string) error {
	return p.store.Delete(ctx, id)
}

func (p *LocalProvider) dummy() []byte {
	p.dummyOnce.Do(func() {
		p.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("school-sos-timing-pad"), p.cost)
	})
	return p.dummyHash
}
