package memory

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"farmacia-bermat/backend/internal/domain"
)

// SeedCredentials holds the passwords of the demo accounts. Empty fields
// fall back to development defaults.
type SeedCredentials struct {
	AdminPassword    string
	OperatorPassword string
}

const (
	devAdminPassword    = "admin123"
	devOperatorPassword = "farmacia123"
)

// NewSeeded returns a store holding the demo pharmacy. Batch dates are placed
// relative to now so the mix of valid, near-expiry and expired stock holds on
// any start date.
func NewSeeded(now time.Time, creds SeedCredentials) *Store {
	s := New()
	today := domain.DateUTC(now)

	priceCap := decimal.NewFromInt(160)
	products := []domain.Product{
		{
			ID: "p1", Code: "001", Name: "Paracetamol 500mg", ActiveIngredient: "Paracetamol",
			Category: "Analgésicos", ProductType: "Medicamento", PriceRegime: domain.PriceRegimeCapped,
			PurchasePrice: decimal.NewFromInt(100), SellPrice: decimal.NewFromInt(150), PriceCap: &priceCap,
			Taxable: true, Supplier: "PharmaDist", Active: true, MinStock: 20,
		},
		{
			ID: "p2", Code: "002", Name: "Ibuprofeno 400mg", ActiveIngredient: "Ibuprofeno",
			Category: "Anti-inflamatórios", ProductType: "Medicamento", PriceRegime: domain.PriceRegimeFree,
			PurchasePrice: decimal.NewFromInt(200), SellPrice: decimal.NewFromInt(350),
			Taxable: true, Supplier: "GlobalMeds", Active: true, MinStock: 15,
		},
		{
			ID: "p3", Code: "003", Name: "Máscara Cirúrgica", ActiveIngredient: "N/A",
			Category: "Equipamentos descartáveis", ProductType: "Equipamento", PriceRegime: domain.PriceRegimeFree,
			PurchasePrice: decimal.NewFromInt(20), SellPrice: decimal.NewFromInt(50),
			Taxable: true, Supplier: "HygieneCo", Active: false, MinStock: 100,
		},
	}
	for _, p := range products {
		s.products[p.ID] = p
	}

	batches := []domain.Batch{
		{ID: "b1", ProductID: "p1", LotNumber: "LOT2023-01", ExpiryDate: today.AddDate(1, 6, 0), Quantity: 50, EntryDate: today.AddDate(0, -9, 0)},
		{ID: "b2", ProductID: "p2", LotNumber: "LOT2023-05", ExpiryDate: today.AddDate(0, 0, 30), Quantity: 10, EntryDate: today.AddDate(0, -6, 0)},
		{ID: "b3", ProductID: "p1", LotNumber: "LOT2024-02", ExpiryDate: today.AddDate(0, 0, -30), Quantity: 5, EntryDate: today.AddDate(0, -3, 0)},
	}
	for _, b := range batches {
		s.batches[b.ID] = b
	}

	for _, c := range []domain.Customer{
		{ID: "c1", Name: "Cliente Ocasional", Type: domain.CustomerOccasional},
		{ID: "c2", Name: "Hospital Central", Type: domain.CustomerInstitutional, TaxID: "500123456"},
	} {
		s.customers[c.ID] = c
		s.customerOrder = append(s.customerOrder, c.ID)
	}

	for _, u := range seedUsers(creds) {
		s.usersByID[u.ID] = u
	}
	return s
}

func seedUsers(creds SeedCredentials) []domain.User {
	if creds.AdminPassword == "" || creds.OperatorPassword == "" {
		log.Warn().Msg("memory store: using default dev credentials; set SEED_ADMIN_PASSWORD and SEED_OPERATOR_PASSWORD to override")
	}
	if creds.AdminPassword == "" {
		creds.AdminPassword = devAdminPassword
	}
	if creds.OperatorPassword == "" {
		creds.OperatorPassword = devOperatorPassword
	}

	users := []domain.User{
		{ID: "u1", Username: "admin", Role: domain.RoleAdmin, FullName: "Administrador", TaxID: "000000001", Status: domain.UserStatusActive},
		{ID: "u2", Username: "farmaceutico1", Role: domain.RoleOperator, FullName: "Farmacêutico de Turno", TaxID: "000000002", Status: domain.UserStatusActive},
	}
	passwords := []string{creds.AdminPassword, creds.OperatorPassword}
	for i := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(passwords[i]), bcrypt.DefaultCost)
		if err != nil {
			log.Fatal().Err(err).Str("username", users[i].Username).Msg("memory store: hash seed password")
		}
		users[i].PasswordHash = string(hash)
	}
	return users
}
