package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ptnhung/ffgroups-server/models"
	"github.com/ptnhung/ffgroups-server/shopify"
)

const testMerchant = "default"

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.MerchantSettings{},
		&models.Group{},
		&models.GroupMember{},
		&models.GroupInvitation{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	settings := models.MerchantSettings{
		MerchantID:        testMerchant,
		DefaultMaxMembers: 20,
		InviteExpiryDays:  7,
	}
	if err := db.Create(&settings).Error; err != nil {
		t.Fatalf("failed to seed merchant settings: %v", err)
	}

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string, canCreate bool) *models.User {
	t.Helper()

	user := models.User{
		Name:            email,
		Email:           email,
		PasswordHash:    "x",
		Role:            "customer",
		Active:          true,
		CanCreateGroups: canCreate,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", email, err)
	}
	return &user
}

func createTestGroup(t *testing.T, db *gorm.DB, ownerEmail string, maxMembers int) (*models.Group, *models.User) {
	t.Helper()

	owner := createTestUser(t, db, ownerEmail, true)
	svc := NewGroupService(db, testMerchant)
	group, err := svc.CreateGroup(owner.ID, testMerchant, "Family of "+ownerEmail, &maxMembers)
	if err != nil {
		t.Fatalf("failed to create group for %s: %v", ownerEmail, err)
	}
	return group, owner
}

func groupCounter(t *testing.T, db *gorm.DB, groupID uint) int {
	t.Helper()

	var group models.Group
	if err := db.First(&group, groupID).Error; err != nil {
		t.Fatalf("failed to reload group: %v", err)
	}
	return group.CurrentMembers
}

// fakeDirectory is an in-memory stand-in for the Shopify customer
// directory. With fail set every call errors, exercising the degraded path.
type fakeDirectory struct {
	byEmail map[string]string
	nextID  int
	fail    bool
	created []string
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{byEmail: make(map[string]string), nextID: 1000}
}

func (d *fakeDirectory) FindByEmail(_ context.Context, email string) (string, error) {
	if d.fail {
		return "", errors.New("directory unavailable")
	}
	return d.byEmail[email], nil
}

func (d *fakeDirectory) Create(_ context.Context, profile shopify.CustomerProfile) (string, error) {
	if d.fail {
		return "", errors.New("directory unavailable")
	}
	d.nextID++
	id := fmt.Sprintf("%d", d.nextID)
	d.byEmail[profile.Email] = id
	d.created = append(d.created, profile.Email)
	return id, nil
}

var _ shopify.CustomerDirectory = (*fakeDirectory)(nil)
