package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(All()...))
	return db
}

func TestWebsiteBeforeCreate(t *testing.T) {
	db := openDB(t)
	w := Website{Name: "blog", Domain: "blog.example.com", Path: "/var/www/blog"}
	require.NoError(t, db.Create(&w).Error)
	assert.NotEmpty(t, w.UUID)
	assert.Equal(t, WebsiteStopped, w.Status)
}

func TestWebsiteStatusValid(t *testing.T) {
	assert.True(t, WebsiteRunning.Valid())
	assert.True(t, WebsiteError.Valid())
	assert.False(t, WebsiteStatus("paused").Valid())
}

func TestServerConnectionBeforeCreate(t *testing.T) {
	db := openDB(t)
	s := ServerConnection{Name: "edge", Host: "10.0.0.5", Username: "deploy"}
	require.NoError(t, db.Create(&s).Error)
	assert.NotEmpty(t, s.UUID)

	var loaded ServerConnection
	require.NoError(t, db.First(&loaded, s.ID).Error)
	assert.Equal(t, 22, loaded.Port)
	assert.Equal(t, ServerDisconnected, loaded.Status)
}

func TestDatabasePassword(t *testing.T) {
	d := Database{Name: "shop"}
	require.NoError(t, d.SetPassword("s3cret!"))
	assert.NotEqual(t, "s3cret!", d.PasswordHash)
	assert.True(t, d.CheckPassword("s3cret!"))
	assert.False(t, d.CheckPassword("wrong"))
}

func TestNotificationProviderWants(t *testing.T) {
	p := NotificationProvider{NotifySecurity: true}
	assert.True(t, p.Wants(EventSecurity))
	assert.False(t, p.Wants(EventDeployment))
	assert.False(t, p.Wants(EventServer))
	assert.True(t, p.Wants(EventTest))
}

func TestNotificationBeforeCreate(t *testing.T) {
	db := openDB(t)
	n := Notification{Type: NotificationTypeInfo, Title: "hi"}
	require.NoError(t, db.Create(&n).Error)
	assert.NotEmpty(t, n.ID)
}

func TestUserIsAdmin(t *testing.T) {
	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
	assert.False(t, (&User{Role: RoleUser}).IsAdmin())
}
