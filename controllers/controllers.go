package controllers

import (
	"github.com/ptnhung/ffgroups-server/config"
	"github.com/ptnhung/ffgroups-server/mailer"
	"github.com/ptnhung/ffgroups-server/services"
	"github.com/ptnhung/ffgroups-server/shopify"
)

var (
	groupSvc  *services.GroupService
	memberSvc *services.MembershipService
	inviteSvc *services.InvitationService
	joinSvc   *services.JoinService
	notifier  mailer.Notifier
)

// Init wires the service singletons against the global DB. Must run after
// config.ConnectDB.
func Init() {
	db := config.DB

	var directory shopify.CustomerDirectory
	if client := shopify.NewClient(config.App.ShopifyShopDomain, config.App.ShopifyAccessToken); client.Enabled() {
		directory = client
	}

	resolver := services.NewIdentityResolver(db, directory)
	groupSvc = services.NewGroupService(db, config.App.DefaultMerchantID)
	memberSvc = services.NewMembershipService(db)
	inviteSvc = services.NewInvitationService(db, resolver, memberSvc)
	joinSvc = services.NewJoinService(db, groupSvc, resolver, memberSvc)

	if config.App.SMTPHost != "" {
		notifier = mailer.NewSMTPNotifier(
			config.App.SMTPHost, config.App.SMTPPort,
			config.App.SMTPUser, config.App.SMTPPassword, config.App.MailFrom)
	} else {
		notifier = mailer.NoopNotifier{}
	}
}
