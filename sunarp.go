package pide

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/jmontalvo/go-pide/internal/api"
	"github.com/jmontalvo/go-pide/internal/soap"
)

// SunarpService provides access to the SUNARP registry operations.
type SunarpService interface {
	// Offices retrieves the directory of regional registry offices. The
	// list is fetched fresh on every call; the service never returns a
	// legitimately empty directory, so zero offices is a NotFoundError.
	Offices(ctx context.Context) ([]RegistryOffice, error)

	// VehicleByPlate queries one office for a plate. Zone and office are
	// the two-digit codes used by the registry.
	VehicleByPlate(ctx context.Context, zone, office, plate string) (*VehicleRecord, error)

	// SearchVehicleByPlate searches every regional office for a plate,
	// sequentially, in the order the directory returns them. The first
	// office with a valid record wins; offices that fail are skipped.
	SearchVehicleByPlate(ctx context.Context, plate string) (*VehicleRecord, error)

	// LegalEntityByName looks up a legal entity by its registered name.
	LegalEntityByName(ctx context.Context, razonSocial string) (*LegalEntityRecord, error)

	// SearchTitularity lists the assets registered to a person or legal
	// entity.
	SearchTitularity(ctx context.Context, query *TitularityQuery) ([]TitularityEntry, error)

	// REST issues a credentialed call against a REST-exposed SUNARP
	// endpoint and returns the parsed payload. Method is POST (JSON
	// body) or GET (query parameters); empty defaults to POST.
	REST(ctx context.Context, endpoint string, extra map[string]any, method string) (map[string]any, error)
}

// sunarpService implements SunarpService.
type sunarpService struct {
	soap *soap.Transport
	rest *api.Transport
	log  *zap.Logger
}

func newSunarpService(soapTransport *soap.Transport, restTransport *api.Transport, log *zap.Logger) *sunarpService {
	return &sunarpService{soap: soapTransport, rest: restTransport, log: log}
}

// Offices retrieves the regional office directory via getOficinas.
func (s *sunarpService) Offices(ctx context.Context) ([]RegistryOffice, error) {
	resp, err := s.soap.Do(ctx, "getOficinas")
	if err != nil {
		return nil, err
	}
	if !is2xx(resp.StatusCode) {
		return nil, httpError(resp.StatusCode, resp.Body)
	}

	offices, err := soap.Find[RegistryOffice](resp.Body, "oficina")
	if err != nil {
		return nil, err
	}

	if len(offices) == 0 {
		if err := classifyReturn(resp.Body); err != nil {
			return nil, err
		}
		return nil, &NotFoundError{ServiceError{
			Message: "el servicio getOficinas no devolvió resultados",
		}}
	}

	s.log.Debug("directorio de oficinas obtenido", zap.Int("oficinas", len(offices)))
	return offices, nil
}

// VehicleByPlate queries a single office via verDetalleRPVExtra.
func (s *sunarpService) VehicleByPlate(ctx context.Context, zone, office, plate string) (*VehicleRecord, error) {
	plate = strings.ToUpper(strings.TrimSpace(plate))
	if plate == "" {
		return nil, &ValidationError{
			ServiceError: ServiceError{Message: "placa es obligatoria"},
			Field:        "plate",
		}
	}

	resp, err := s.soap.Do(ctx, "verDetalleRPVExtra",
		soap.Param{Name: "zona", Value: zone},
		soap.Param{Name: "oficina", Value: office},
		soap.Param{Name: "placa", Value: plate},
	)
	if err != nil {
		return nil, err
	}
	if !is2xx(resp.StatusCode) {
		return nil, httpError(resp.StatusCode, resp.Body)
	}

	ret, err := soap.FirstReturn(resp.Body)
	if err != nil {
		return nil, err
	}
	if ret == nil {
		return nil, classifyResponse(nil)
	}
	if !ret.HasChildren {
		// String result: the service answers errors in prose.
		if cerr := classifyResponse(ret.Text); cerr != nil {
			return nil, cerr
		}
		return nil, &NotFoundError{ServiceError{
			Message: fmt.Sprintf("no se encontró información para la placa %s", plate),
		}}
	}

	vehicles, err := soap.Find[vehicleXML](resp.Body, "return")
	if err != nil {
		return nil, err
	}
	if len(vehicles) == 0 {
		return nil, &NotFoundError{ServiceError{
			Message: fmt.Sprintf("no se encontró información para la placa %s", plate),
		}}
	}
	return normalizeVehicle(vehicles[0], plate)
}

// attemptOutcome is the three-way result of querying one office during a
// cross-office search.
type attemptOutcome int

const (
	attemptHit    attemptOutcome = iota // valid record, stop searching
	attemptMiss                         // plate not registered here, keep going
	attemptFailed                       // office malfunction, keep going
)

// SearchVehicleByPlate emulates the "search nationally" operation the
// service does not offer: it queries each regional office in turn and
// returns the first valid record, annotated with the office that held it.
//
// A NotFound from one office only means the plate is not registered
// there; any other failure is an isolated office problem, logged and
// skipped, so one regional outage cannot block discovery through the
// remaining offices. Only exhausting the whole directory is a NotFound
// for the caller. Offices are visited exactly in directory order, which
// the upstream does not guarantee to be stable; duplicate plates may
// therefore resolve differently between calls.
func (s *sunarpService) SearchVehicleByPlate(ctx context.Context, plate string) (*VehicleRecord, error) {
	plate = strings.ToUpper(strings.TrimSpace(plate))
	if plate == "" {
		return nil, &ValidationError{
			ServiceError: ServiceError{Message: "placa es obligatoria"},
			Field:        "plate",
		}
	}

	offices, err := s.Offices(ctx)
	if err != nil {
		return nil, err
	}

	for _, office := range offices {
		rec, outcome := s.tryOffice(ctx, office, plate)
		if outcome == attemptHit {
			return rec, nil
		}
	}

	return nil, &NotFoundError{ServiceError{
		Message: fmt.Sprintf("no se encontró información para la placa %s", plate),
	}}
}

func (s *sunarpService) tryOffice(ctx context.Context, office RegistryOffice, plate string) (*VehicleRecord, attemptOutcome) {
	rec, err := s.VehicleByPlate(ctx, padCode(office.Zone), padCode(office.Code), plate)
	if err == nil {
		rec.Office = office.Name
		rec.Zone = office.Zone
		return rec, attemptHit
	}

	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return nil, attemptMiss
	}

	s.log.Warn("consulta de placa falló en oficina",
		zap.String("oficina", office.Name),
		zap.String("zona", office.Zone),
		zap.Error(err),
	)
	return nil, attemptFailed
}

// LegalEntityByName looks up a legal entity via buscarPJRazonSocial.
func (s *sunarpService) LegalEntityByName(ctx context.Context, razonSocial string) (*LegalEntityRecord, error) {
	razonSocial = strings.TrimSpace(razonSocial)
	if razonSocial == "" {
		return nil, &ValidationError{
			ServiceError: ServiceError{Message: "razonSocial es obligatoria"},
			Field:        "razonSocial",
		}
	}

	resp, err := s.soap.Do(ctx, "buscarPJRazonSocial",
		soap.Param{Name: "razonSocial", Value: razonSocial},
	)
	if err != nil {
		return nil, err
	}
	if !is2xx(resp.StatusCode) {
		return nil, httpError(resp.StatusCode, resp.Body)
	}

	results, err := soap.Find[legalEntityXML](resp.Body, "resultado")
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		if err := classifyReturn(resp.Body); err != nil {
			return nil, err
		}
		return nil, &NotFoundError{ServiceError{
			Message: "no se encontró información de persona jurídica",
		}}
	}

	return normalizeLegalEntity(results[0])
}

// SearchTitularity lists registered assets via buscarTitularidadSIRSARP.
func (s *sunarpService) SearchTitularity(ctx context.Context, query *TitularityQuery) ([]TitularityEntry, error) {
	participant, err := query.validate()
	if err != nil {
		return nil, err
	}

	resp, err := s.soap.Do(ctx, "buscarTitularidadSIRSARP",
		soap.Param{Name: "tipoParticipante", Value: participant},
		soap.Param{Name: "apellidoPaterno", Value: strings.TrimSpace(query.PaternalSurname)},
		soap.Param{Name: "apellidoMaterno", Value: strings.TrimSpace(query.MaternalSurname)},
		soap.Param{Name: "nombres", Value: strings.TrimSpace(query.GivenName)},
		soap.Param{Name: "razonSocial", Value: strings.TrimSpace(query.LegalName)},
	)
	if err != nil {
		return nil, err
	}
	if !is2xx(resp.StatusCode) {
		return nil, httpError(resp.StatusCode, resp.Body)
	}

	nodes, err := soap.Find[titularityXML](resp.Body, "respuestaTitularidad")
	if err != nil {
		return nil, err
	}

	entries := normalizeTitularity(nodes)
	if len(entries) == 0 {
		if err := classifyReturn(resp.Body); err != nil {
			return nil, err
		}
		return nil, &NotFoundError{ServiceError{
			Message: "no se encontraron titulares para los parámetros indicados",
		}}
	}

	s.log.Debug("consulta de titularidad exitosa", zap.Int("resultados", len(entries)))
	return entries, nil
}

// REST issues a credentialed JSON call against the SUNARP REST interface.
func (s *sunarpService) REST(ctx context.Context, endpoint string, extra map[string]any, method string) (map[string]any, error) {
	if method == "" {
		method = http.MethodPost
	}

	resp, err := s.rest.Do(ctx, &api.Request{
		Method:   strings.ToUpper(method),
		Endpoint: endpoint,
		Extra:    extra,
	})
	if err != nil {
		return nil, err
	}
	if !is2xx(resp.StatusCode) {
		return nil, httpError(resp.StatusCode, resp.Body)
	}

	var decoded map[string]any
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return nil, fmt.Errorf("pide: decoding %s response: %w", endpoint, err)
	}
	if cerr := classifyResponse(decoded); cerr != nil {
		return nil, cerr
	}
	return decoded, nil
}

// classifyReturn classifies the string result of an envelope whose
// expected result nodes are absent. Envelopes with structured results or
// an empty return are left to the caller's not-found handling.
func classifyReturn(doc []byte) error {
	ret, err := soap.FirstReturn(doc)
	if err != nil || ret == nil || ret.HasChildren || ret.Text == "" {
		return nil
	}
	return classifyResponse(ret.Text)
}

// padCode renders an office or zone code as the two-digit zero-padded
// form the query operations expect.
func padCode(code string) string {
	code = strings.TrimSpace(code)
	if len(code) == 1 {
		return "0" + code
	}
	return code
}
