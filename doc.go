// Package pide provides a native Go client for the Peruvian state
// interoperability platform (PIDE) registry services: SUNARP (vehicles,
// legal entities, titularity), RENIEC (identity) and the public SUNAT
// RUC lookup.
//
// # Features
//
//   - One call contract over the platform's two wire protocols
//     (JSON-over-HTTP and SOAP)
//   - Typed errors classified from the service's free-text failure
//     messages
//   - Automatic repair of upstream text-encoding corruption
//   - Cross-office plate search over the unindexed regional registry
//
// # Quick Start
//
//	client, err := pide.NewClient(
//	    pide.WithCredentials(usuario, clave),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	vehicle, err := client.Sunarp.SearchVehicleByPlate(ctx, "ABC123")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%s %s, registered at %s\n", vehicle.Brand, vehicle.Model, vehicle.Office)
//
// # Error Handling
//
// The service reports failure through prose embedded in otherwise
// structured responses. The package classifies that text into typed
// errors that can be inspected with errors.As:
//
//	record, err := client.Sunarp.VehicleByPlate(ctx, "09", "01", "ABC123")
//	if err != nil {
//	    var notFound *pide.NotFoundError
//	    if errors.As(err, &notFound) {
//	        // The plate is not registered at this office.
//	    }
//	}
//
// # Cross-office search
//
// The registry has no national plate index: each regional office must be
// queried separately. SearchVehicleByPlate fetches the office directory
// and tries each office in turn, sequentially. The first office with a
// valid record wins; an office that fails (outage, credential hiccup) is
// logged and skipped rather than aborting the search.
package pide
