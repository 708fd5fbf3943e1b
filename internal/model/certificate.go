package model

import "time"

type CertificateStatus string

const (
	CertificateStatusActive  CertificateStatus = "active"
	CertificateStatusRevoked CertificateStatus = "revoked"
)

// CertificateDetails are the officer-supplied fields captured at issuance.
type CertificateDetails struct {
	FarmerName          string `json:"farmerName" yaml:"farmerName"`
	FarmerID            string `json:"farmerId" yaml:"farmerId"`
	LandID              string `json:"landId" yaml:"landId"`
	CropType            string `json:"cropType" yaml:"cropType"`
	LandArea            string `json:"landArea" yaml:"landArea"`
	TreesPlanted        string `json:"treesPlanted" yaml:"treesPlanted"`
	FertilizerUse       string `json:"fertilizerUse" yaml:"fertilizerUse"`
	FertilizerAmount    string `json:"fertilizerAmount" yaml:"fertilizerAmount"`
	IrrigationPractices string `json:"irrigationPractices" yaml:"irrigationPractices"`
	VisitDate           string `json:"visitDate" yaml:"visitDate"`
	OfficerName         string `json:"officerName" yaml:"officerName"`
	Notes               string `json:"notes" yaml:"notes"`
}

// Certificate is an issued government verification record. Everything except
// Status is fixed at issuance.
type Certificate struct {
	CertificateID string `json:"certificateId"`
	QRCode        string `json:"qrCode"`
	CertificateDetails
	DateIssued time.Time         `json:"dateIssued"`
	Status     CertificateStatus `json:"status"`
}

func (c *Certificate) Active() bool {
	return c.Status == CertificateStatusActive
}
