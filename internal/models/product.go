package models

import (
	"strings"
	"time"
)

type ProductStatus string

const (
	ProductDraft     ProductStatus = "DRAFT"
	ProductValidated ProductStatus = "VALIDATED"
)

// Product carries the subset of the dossier record read and written by the
// generation pipeline.
type Product struct {
	ID             string        `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID         string        `gorm:"type:varchar(36);index" json:"user_id"`
	ClientName     string        `gorm:"column:nom_client" json:"nom_client"`
	ProductName    string        `gorm:"column:nom_produit" json:"nom_produit"`
	Brand          string        `gorm:"column:marque" json:"marque"`
	Range          string        `gorm:"column:gamme" json:"gamme"`
	CommercialName string        `gorm:"column:nom_commercial" json:"nom_commercial"`
	Supplier       string        `gorm:"column:fournisseur" json:"fournisseur"`
	FormulaRef     string        `gorm:"column:ref_formule" json:"ref_formule"`
	ProductRef     string        `gorm:"column:ref_produit" json:"ref_produit"`
	MarketDate     *time.Time    `gorm:"column:date_mise_marche;type:date" json:"date_mise_marche"`
	MarketOwner    string        `gorm:"column:resp_mise_marche" json:"resp_mise_marche"`
	Packaging      string        `gorm:"column:faconnerie" json:"faconnerie"`
	Status         ProductStatus `gorm:"type:varchar(16);default:'DRAFT'" json:"status"`
	DriveFolderID  string        `json:"drive_folder_id"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

// MissingRequired lists the required fields that are still empty.
func (p *Product) MissingRequired() []string {
	var missing []string
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	check("nom_commercial", p.CommercialName)
	check("fournisseur", p.Supplier)
	check("ref_formule", p.FormulaRef)
	if p.MarketDate == nil || p.MarketDate.IsZero() {
		missing = append(missing, "date_mise_marche")
	}
	check("resp_mise_marche", p.MarketOwner)
	check("faconnerie", p.Packaging)
	return missing
}

// Fields returns the record as template data keyed by column name.
func (p *Product) Fields() map[string]any {
	marketDate := ""
	if p.MarketDate != nil {
		marketDate = p.MarketDate.Format("02/01/2006")
	}
	return map[string]any{
		"id":               p.ID,
		"nom_client":       p.ClientName,
		"nom_produit":      p.ProductName,
		"marque":           p.Brand,
		"gamme":            p.Range,
		"nom_commercial":   p.CommercialName,
		"fournisseur":      p.Supplier,
		"ref_formule":      p.FormulaRef,
		"ref_produit":      p.ProductRef,
		"date_mise_marche": marketDate,
		"resp_mise_marche": p.MarketOwner,
		"faconnerie":       p.Packaging,
		"status":           string(p.Status),
	}
}

const (
	defaultClientFolder  = "SansClient"
	defaultFormulaFolder = "REF"
	AnnexesFolder        = "Annexes"
)

// FolderPath is the remote folder hierarchy of the product formula.
func (p *Product) FolderPath() []string {
	client := strings.TrimSpace(p.ClientName)
	if client == "" {
		client = defaultClientFolder
	}
	name := strings.TrimSpace(p.ProductName)
	if name == "" {
		name = p.ID
	}
	ref := strings.TrimSpace(p.FormulaRef)
	if ref == "" {
		ref = defaultFormulaFolder
	}
	return []string{client, name, ref}
}

// AnnexFolderPath is FolderPath with the trailing annex segment.
func (p *Product) AnnexFolderPath() []string {
	return append(p.FolderPath(), AnnexesFolder)
}
