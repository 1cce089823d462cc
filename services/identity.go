package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ptnhung/ffgroups-server/models"
	"github.com/ptnhung/ffgroups-server/shopify"
	"github.com/ptnhung/ffgroups-server/utils"
)

// directoryTimeout caps every call into the external customer directory so
// a slow shop can never stall a join or acceptance.
const directoryTimeout = 5 * time.Second

// IdentityResolver reconciles the three identity spaces: internal user
// accounts, Shopify customer records and plain email addresses. Given any
// one of them it finds or creates the other two. The internal user row is
// mandatory; the Shopify linkage is best-effort.
type IdentityResolver struct {
	db        *gorm.DB
	directory shopify.CustomerDirectory // nil disables external linkage
}

func NewIdentityResolver(db *gorm.DB, directory shopify.CustomerDirectory) *IdentityResolver {
	return &IdentityResolver{db: db, directory: directory}
}

// ResolveByCustomerID returns the internal user linked to the given Shopify
// customer id, linking or creating one as needed. fallbackEmail may be
// empty; a placeholder email is synthesized for brand-new accounts.
func (r *IdentityResolver) ResolveByCustomerID(customerID, fallbackEmail string) (*models.User, error) {
	if customerID != "" {
		var user models.User
		err := r.db.Where("shopify_customer_id = ?", customerID).First(&user).Error
		if err == nil {
			return &user, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	if fallbackEmail != "" {
		var user models.User
		err := r.db.Where("email = ?", strings.ToLower(fallbackEmail)).First(&user).Error
		if err == nil {
			if customerID != "" && user.ShopifyCustomerID == nil {
				user.ShopifyCustomerID = &customerID
				if err := r.db.Save(&user).Error; err != nil {
					return nil, err
				}
			}
			return &user, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	return r.createUser(customerID, fallbackEmail)
}

// Resolve is the entry point used by the join and acceptance flows. A known
// internal user id wins; otherwise resolution falls back to the customer id
// and email.
func (r *IdentityResolver) Resolve(email, customerID string, userID uint) (*models.User, error) {
	if userID != 0 {
		var user models.User
		if err := r.db.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return r.ResolveByCustomerID(customerID, email)
			}
			return nil, err
		}
		if customerID != "" && user.ShopifyCustomerID == nil {
			user.ShopifyCustomerID = &customerID
			if err := r.db.Save(&user).Error; err != nil {
				return nil, err
			}
		}
		return &user, nil
	}
	return r.ResolveByCustomerID(customerID, email)
}

// EnsureCustomer looks up or creates a Shopify customer record for the
// email and returns its id. Failures are logged and swallowed: the external
// link never blocks the membership flow, so "" is a valid outcome.
func (r *IdentityResolver) EnsureCustomer(ctx context.Context, email, firstName, lastName string) string {
	if r.directory == nil || email == "" {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, directoryTimeout)
	defer cancel()

	id, err := r.directory.FindByEmail(ctx, email)
	if err != nil {
		slog.Warn("customer directory lookup failed, continuing without link",
			"email", email, "error", err)
		return ""
	}
	if id != "" {
		return id
	}

	id, err = r.directory.Create(ctx, shopify.CustomerProfile{
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Tags:      "friends-family-group",
	})
	if err != nil {
		slog.Warn("customer directory create failed, continuing without link",
			"email", email, "error", err)
		return ""
	}
	return id
}

func (r *IdentityResolver) createUser(customerID, email string) (*models.User, error) {
	if email == "" {
		email = fmt.Sprintf("customer-%s@placeholder.invalid", uuid.NewString())
	}

	// Throwaway credential: the account is reachable through Shopify
	// identity only until the customer sets a real password.
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(hex.EncodeToString(raw))
	if err != nil {
		return nil, err
	}

	user := models.User{
		Name:         email,
		Email:        strings.ToLower(email),
		PasswordHash: hash,
		Role:         "customer",
		Active:       true,
	}
	if customerID != "" {
		user.ShopifyCustomerID = &customerID
	}

	if err := r.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
