// internal/app/system/seeding/seeding.go
package seeding

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	userstore "github.com/dalemusser/stratasite/internal/app/store/users"
	"github.com/dalemusser/stratasite/internal/app/system/authutil"
	"github.com/dalemusser/stratasite/internal/domain/content"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/domain/quote"
	"go.uber.org/zap"
)

// AdminSeed describes the bootstrap admin account. An empty Email disables it.
type AdminSeed struct {
	Email    string
	Name     string
	Password string
}

// Deps are the stores SeedAll writes to. A nil Users skips the admin seed.
type Deps struct {
	Pages content.Repository
	Users *userstore.Store
}

// SeedAll seeds default data if not already present.
func SeedAll(ctx context.Context, deps Deps, seedContent bool, admin AdminSeed, logger *zap.Logger) error {
	if seedContent && deps.Pages != nil {
		if _, err := SeedPages(ctx, deps.Pages, logger); err != nil {
			return err
		}
	}
	if admin.Email != "" && deps.Users != nil {
		if err := SeedAdmin(ctx, deps.Users, admin, logger); err != nil {
			return err
		}
	}
	return nil
}

// SeedPages creates every default page that is missing from repo and returns
// the names it created. Existing pages are never touched.
func SeedPages(ctx context.Context, repo content.Repository, logger *zap.Logger) ([]content.PageName, error) {
	pages, err := DefaultPages()
	if err != nil {
		return nil, err
	}

	var created []content.PageName
	for _, page := range pages {
		_, err := repo.Get(ctx, page.PageName)
		if err == nil {
			continue
		}
		if !errors.Is(err, content.ErrNotFound) {
			logger.Error("failed to check if page exists",
				zap.String("page", string(page.PageName)),
				zap.Error(err))
			return created, err
		}
		if _, err := repo.Create(ctx, page); err != nil {
			if errors.Is(err, content.ErrDuplicatePage) {
				continue
			}
			logger.Error("failed to seed page",
				zap.String("page", string(page.PageName)),
				zap.Error(err))
			return created, err
		}
		created = append(created, page.PageName)
		logger.Info("seeded default page",
			zap.String("page", string(page.PageName)),
			zap.Int("sections", len(page.Sections)))
	}
	return created, nil
}

// SeedAdmin creates the configured admin account unless a user with that
// email already exists.
func SeedAdmin(ctx context.Context, users *userstore.Store, admin AdminSeed, logger *zap.Logger) error {
	exists, err := users.ExistsByLoginID(ctx, admin.Email)
	if err != nil {
		return err
	}
	if exists {
		logger.Debug("seed admin already present", zap.String("login_id", admin.Email))
		return nil
	}
	if err := authutil.ValidatePassword(admin.Password); err != nil {
		return fmt.Errorf("seed admin password: %w", err)
	}
	hash, err := authutil.HashPassword(admin.Password)
	if err != nil {
		return err
	}
	name := admin.Name
	if name == "" {
		name = "Yönetici"
	}
	u, err := users.Create(ctx, userstore.CreateInput{
		FullName:     name,
		Email:        admin.Email,
		Role:         models.RoleAdmin,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateLoginID) {
			return nil
		}
		return err
	}
	logger.Info("seeded admin account", zap.String("user_id", u.ID.Hex()), zap.String("login_id", admin.Email))
	return nil
}

// DefaultPages builds the agency's starter content. Every page is produced by
// the reducer, so seeded pages satisfy the same rules as edited ones.
func DefaultPages() ([]content.PageContent, error) {
	builders := []struct {
		name     content.PageName
		title    string
		desc     string
		keywords []string
		actions  []content.Action
	}{
		{content.PageHome, "Ana Sayfa", "Web tasarım, e-ticaret ve dijital pazarlama ajansı.",
			[]string{"web tasarım", "e-ticaret", "dijital ajans"}, homeSections()},
		{content.PageAbout, "Hakkımızda", "Ekibimiz, misyonumuz ve yolculuğumuz.",
			[]string{"hakkımızda", "misyon"}, aboutSections()},
		{content.PageServices, "Hizmetler", "Hizmetlerimiz ve fiyat paketlerimiz.",
			[]string{"hizmetler", "fiyatlar"}, servicesSections()},
		{content.PageContact, "İletişim", "Bize ulaşın.",
			[]string{"iletişim"}, contactSections()},
	}

	out := make([]content.PageContent, 0, len(builders))
	for _, b := range builders {
		p, err := content.NewPage(b.name, b.title, b.desc, b.keywords)
		if err != nil {
			return nil, err
		}
		p, err = content.ReduceAll(p, b.actions...)
		if err != nil {
			return nil, fmt.Errorf("default %s page: %w", b.name, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func add(t content.SectionType, f content.Fields) content.Action {
	return content.AddSection{Type: t, Fields: f}
}

func text(s string) content.Value { return content.Text(s) }

func homeSections() []content.Action {
	return []content.Action{
		add(content.TypeHero, content.Fields{
			"title":       text("Dijital dünyada markanızı büyütüyoruz"),
			"subtitle":    text("Web tasarım, e-ticaret ve mobil çözümler"),
			"description": text("Fikirden yayına kadar her adımda yanınızdayız."),
			"buttonText":  text("Teklif Al"),
			"buttonLink":  text("/services#teklif"),
		}),
		add(content.TypeServices, content.Fields{
			"title":    text("Neler Yapıyoruz?"),
			"subtitle": text("İşinize değer katan hizmetler"),
			"services": catalogServiceItems(),
		}),
		add(content.TypeCTA, content.Fields{
			"title":      text("Projenizi konuşalım"),
			"subtitle":   text("Ücretsiz ön görüşme için bize yazın."),
			"buttonText": text("İletişime Geç"),
			"buttonLink": text("/contact"),
		}),
	}
}

func aboutSections() []content.Action {
	return []content.Action{
		add(content.TypeMission, content.Fields{
			"title":   text("Misyonumuz"),
			"content": text("İşletmelerin dijital dönüşümünü sade, ölçülebilir ve sürdürülebilir çözümlerle hızlandırmak."),
		}),
		add(content.TypeValues, content.Fields{
			"title": text("Değerlerimiz"),
			"values": content.Items(
				content.Item{"title": text("Şeffaflık"), "description": text("Her adımı birlikte planlar, açıkça raporlarız.")},
				content.Item{"title": text("Kalite"), "description": text("Test edilmiş, bakımı kolay işler teslim ederiz.")},
				content.Item{"title": text("Süreklilik"), "description": text("Yayından sonra da yanınızdayız.")},
			),
		}),
		add(content.TypeJourney, content.Fields{
			"title": text("Yolculuğumuz"),
			"milestones": content.Items(
				content.Item{"year": text("2018"), "title": text("Kuruluş"), "description": text("İlk ofisimizi açtık.")},
				content.Item{"year": text("2021"), "title": text("100. proje")},
				content.Item{"year": text("2024"), "title": text("Mobil ekip"), "description": text("Mobil uygulama birimimizi kurduk.")},
			),
		}),
	}
}

func servicesSections() []content.Action {
	return []content.Action{
		add(content.TypeServices, content.Fields{
			"title":    text("Hizmetlerimiz"),
			"services": catalogServiceItems(),
		}),
		add(content.TypePricing, content.Fields{
			"title":    text("Fiyatlandırma"),
			"subtitle": text("İhtiyacınıza uygun paketi seçin"),
			"plans":    catalogPlanItems(),
		}),
		add(content.TypeFAQ, content.Fields{
			"title": text("Sıkça Sorulan Sorular"),
			"items": content.Items(
				content.Item{"question": text("Bir proje ne kadar sürer?"), "answer": text("Paketine göre 2 ile 8 hafta arasında teslim ediyoruz.")},
				content.Item{"question": text("Fiyatlara KDV dahil mi?"), "answer": text("Listelenen fiyatlara KDV dahil değildir.")},
				content.Item{"question": text("Yayından sonra destek veriyor musunuz?"), "answer": text("Her paket belirli bir süre ücretsiz destek içerir.")},
			),
		}),
	}
}

func contactSections() []content.Action {
	return []content.Action{
		add(content.TypeContactInfo, content.Fields{
			"title":        text("Bize Ulaşın"),
			"address":      text("Levent Mah. Büyükdere Cad. No:1\nBeşiktaş / İstanbul"),
			"phone":        text("+90 212 555 00 00"),
			"email":        text("merhaba@stratasite.com.tr"),
			"workingHours": text("Hafta içi 09:00 - 18:00"),
		}),
		add(content.TypeContactForm, content.Fields{
			"title":      text("Mesaj Gönderin"),
			"subtitle":   text("En geç bir iş günü içinde dönüş yapıyoruz."),
			"submitText": text("Gönder"),
			"enabled":    content.Bool(true),
		}),
		add(content.TypeSocialMedia, content.Fields{
			"title": text("Bizi Takip Edin"),
			"links": content.Items(
				content.Item{"platform": text("instagram"), "url": text("https://instagram.com/stratasite")},
				content.Item{"platform": text("linkedin"), "url": text("https://linkedin.com/company/stratasite")},
			),
		}),
	}
}

// catalogServiceItems mirrors the published services so the page and the
// quote form agree.
func catalogServiceItems() content.Value {
	var items []content.Item
	for _, e := range quote.DefaultCatalog().ByKind(quote.KindService) {
		items = append(items, content.Item{
			"title":       text(e.Name),
			"description": text(e.Description),
		})
	}
	return content.Items(items...)
}

func catalogPlanItems() content.Value {
	var items []content.Item
	for i, e := range quote.DefaultCatalog().ByKind(quote.KindPlan) {
		items = append(items, content.Item{
			"title":       text(e.Name),
			"price":       text(strconv.FormatInt(e.BasePrice, 10)),
			"period":      text(e.Period),
			"description": text(e.Description),
			"features":    content.List(e.Features...),
			"featured":    content.Bool(i == 1),
		})
	}
	return content.Items(items...)
}
