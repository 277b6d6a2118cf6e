package pide

import (
	"fmt"
	"strings"

	"github.com/jmontalvo/go-pide/internal/textenc"
)

// YearNotRegistered is the sentinel for vehicles whose manufacture year
// the registry never recorded.
const YearNotRegistered = "No registrado"

// RegistryOffice is a regional branch of the registry, addressed by its
// zone+code pair. Each office potentially holds disjoint data; there is
// no central index across them.
type RegistryOffice struct {
	Code string `json:"codigo" xml:"codOficina"`
	Name string `json:"nombre" xml:"descripcion"`
	Zone string `json:"zona" xml:"codZona"`
}

// VehicleRecord is a normalized vehicle registration entry. Office and
// Zone are filled in by the cross-office search with the office that
// produced the record.
type VehicleRecord struct {
	Plate           string   `json:"placa"`
	Brand           string   `json:"marca"`
	Model           string   `json:"modelo"`
	Color           string   `json:"color"`
	BodyType        string   `json:"carroceria"`
	Status          string   `json:"estado"`
	ManufactureYear string   `json:"anoFabricacion"`
	VIN             string   `json:"vin"`
	EngineNumber    string   `json:"nro_motor"`
	Owners          []string `json:"propietarios"`
	Office          string   `json:"oficina,omitempty"`
	Zone            string   `json:"zona,omitempty"`
}

// vehicleXML mirrors the verDetalleRPVExtra result element.
type vehicleXML struct {
	Placa          string   `xml:"placa"`
	Marca          string   `xml:"marca"`
	Modelo         string   `xml:"modelo"`
	Color          string   `xml:"color"`
	Carroceria     string   `xml:"carroceria"`
	Estado         string   `xml:"estado"`
	AnoFabricacion string   `xml:"anoFabricacion"`
	VIN            string   `xml:"vin"`
	NroMotor       string   `xml:"nro_motor"`
	Propietarios   []string `xml:"propietarios>nombre"`
}

// normalizeVehicle maps a raw result onto a VehicleRecord: every free
// text field goes through encoding repair, a status mentioning
// "circulaci..." is canonicalized, and an unrecorded manufacture year
// becomes the sentinel. A record without a plate is not a record: the
// service answers plate queries for unregistered plates with an empty
// structure instead of an error.
func normalizeVehicle(raw vehicleXML, plate string) (*VehicleRecord, error) {
	estado := strings.TrimSpace(textenc.Repair(raw.Estado))
	if strings.Contains(strings.ToLower(estado), "circulaci") {
		estado = "En circulación"
	}

	year := strings.TrimSpace(raw.AnoFabricacion)
	if year == "" || year == "0" {
		year = YearNotRegistered
	}

	owners := make([]string, 0, len(raw.Propietarios))
	for _, owner := range raw.Propietarios {
		owners = append(owners, textenc.Repair(owner))
	}

	rec := &VehicleRecord{
		Plate:           strings.TrimSpace(raw.Placa),
		Brand:           textenc.Repair(raw.Marca),
		Model:           textenc.Repair(raw.Modelo),
		Color:           textenc.Repair(strings.TrimSpace(raw.Color)),
		BodyType:        textenc.Repair(raw.Carroceria),
		Status:          estado,
		ManufactureYear: year,
		VIN:             strings.TrimSpace(raw.VIN),
		EngineNumber:    strings.TrimSpace(raw.NroMotor),
		Owners:          owners,
	}

	if rec.Plate == "" {
		return nil, &NotFoundError{ServiceError{
			Message: fmt.Sprintf("no se encontró información para la placa %s", plate),
		}}
	}
	return rec, nil
}

// LegalEntityRecord is a normalized legal-entity registry entry.
type LegalEntityRecord struct {
	Name    string `json:"denominacion"`
	Type    string `json:"tipo"`
	Zone    string `json:"zona"`
	Office  string `json:"oficina"`
	Partida string `json:"partida"`
	Ficha   string `json:"ficha"`
	Tomo    string `json:"tomo"`
	Folio   string `json:"folio"`
}

// legalEntityXML mirrors the buscarPJRazonSocial <resultado> element.
type legalEntityXML struct {
	Denominacion string `xml:"denominacion"`
	Tipo         string `xml:"tipo"`
	Zona         string `xml:"zona"`
	Oficina      string `xml:"oficina"`
	Partida      string `xml:"partida"`
	Ficha        string `xml:"ficha"`
	Tomo         string `xml:"tomo"`
	Folio        string `xml:"folio"`
}

// normalizeLegalEntity maps a raw result onto a LegalEntityRecord. A
// result without a name signals "not found".
func normalizeLegalEntity(raw legalEntityXML) (*LegalEntityRecord, error) {
	rec := &LegalEntityRecord{
		Name:    strings.TrimSpace(textenc.Repair(raw.Denominacion)),
		Type:    textenc.Repair(raw.Tipo),
		Zone:    strings.TrimSpace(raw.Zona),
		Office:  textenc.Repair(raw.Oficina),
		Partida: strings.TrimSpace(raw.Partida),
		Ficha:   strings.TrimSpace(raw.Ficha),
		Tomo:    strings.TrimSpace(raw.Tomo),
		Folio:   strings.TrimSpace(raw.Folio),
	}
	if rec.Name == "" {
		return nil, &NotFoundError{ServiceError{
			Message: "no se encontró información de persona jurídica",
		}}
	}
	return rec, nil
}

// TitularityEntry links a person or legal entity to one registered asset.
type TitularityEntry struct {
	Registry        string `json:"registro"`
	Book            string `json:"libro"`
	PaternalSurname string `json:"apPaterno"`
	MaternalSurname string `json:"apMaterno"`
	GivenName       string `json:"nombre"`
	LegalName       string `json:"razonSocial"`
	DocumentType    string `json:"tipoDocumento"`
	DocumentNumber  string `json:"numeroDocumento"`
	PartidaNumber   string `json:"numeroPartida"`
	PlateNumber     string `json:"numeroPlaca"`
	Status          string `json:"estado"`
	Zone            string `json:"zona"`
	Office          string `json:"oficina"`
	Address         string `json:"direccion"`
}

// titularityXML mirrors one <respuestaTitularidad> node. Registro is a
// pointer so wrapper nodes, which lack the child entirely, can be told
// apart from an empty value.
type titularityXML struct {
	Registro        *string `xml:"registro"`
	Libro           string  `xml:"libro"`
	ApPaterno       string  `xml:"apPaterno"`
	ApMaterno       string  `xml:"apMaterno"`
	Nombre          string  `xml:"nombre"`
	RazonSocial     string  `xml:"razonSocial"`
	TipoDocumento   string  `xml:"tipoDocumento"`
	NumeroDocumento string  `xml:"numeroDocumento"`
	NumeroPartida   string  `xml:"numeroPartida"`
	NumeroPlaca     string  `xml:"numeroPlaca"`
	Estado          string  `xml:"estado"`
	Zona            string  `xml:"zona"`
	Oficina         string  `xml:"oficina"`
	Direccion       string  `xml:"direccion"`
}

// normalizeTitularity maps raw nodes onto entries, excluding wrapper
// nodes that carry no <registro> child. An empty result signals "not
// found" to the caller.
func normalizeTitularity(nodes []titularityXML) []TitularityEntry {
	entries := make([]TitularityEntry, 0, len(nodes))
	for _, node := range nodes {
		if node.Registro == nil {
			continue
		}
		entries = append(entries, TitularityEntry{
			Registry:        textenc.Repair(*node.Registro),
			Book:            textenc.Repair(node.Libro),
			PaternalSurname: textenc.Repair(node.ApPaterno),
			MaternalSurname: textenc.Repair(node.ApMaterno),
			GivenName:       textenc.Repair(node.Nombre),
			LegalName:       textenc.Repair(node.RazonSocial),
			DocumentType:    strings.TrimSpace(node.TipoDocumento),
			DocumentNumber:  strings.TrimSpace(node.NumeroDocumento),
			PartidaNumber:   strings.TrimSpace(node.NumeroPartida),
			PlateNumber:     strings.TrimSpace(node.NumeroPlaca),
			Status:          textenc.Repair(node.Estado),
			Zone:            strings.TrimSpace(node.Zona),
			Office:          textenc.Repair(node.Oficina),
			Address:         textenc.Repair(node.Direccion),
		})
	}
	return entries
}

// TitularityQuery describes a titularity search. ParticipantType selects
// the subject kind: "N" (natural person, requires PaternalSurname) or
// "J" (legal entity, requires LegalName).
type TitularityQuery struct {
	ParticipantType string
	PaternalSurname string
	MaternalSurname string
	GivenName       string
	LegalName       string
}

func (q *TitularityQuery) validate() (string, error) {
	if q == nil {
		return "", &ValidationError{
			ServiceError: ServiceError{Message: "query cannot be nil"},
		}
	}

	participant := strings.ToUpper(strings.TrimSpace(q.ParticipantType))
	switch participant {
	case "N":
		if strings.TrimSpace(q.PaternalSurname) == "" {
			return "", &ValidationError{
				ServiceError: ServiceError{Message: "apellidoPaterno es obligatorio para persona natural (tipo 'N')"},
				Field:        "PaternalSurname",
			}
		}
	case "J":
		if strings.TrimSpace(q.LegalName) == "" {
			return "", &ValidationError{
				ServiceError: ServiceError{Message: "razonSocial es obligatorio para persona jurídica (tipo 'J')"},
				Field:        "LegalName",
			}
		}
	default:
		return "", &ValidationError{
			ServiceError: ServiceError{Message: "tipoParticipante debe ser 'N' (natural) o 'J' (jurídica)"},
			Field:        "ParticipantType",
		}
	}
	return participant, nil
}
