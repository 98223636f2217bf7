package api

import (
	"os"
	"reflect"
	"regexp"
	"strings"
	"testing"

	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bookingProtoPath = "proto/shareit/booking/v1/booking.proto"

var (
	protoPackageRe = regexp.MustCompile(`(?m)^package ([\w.]+);`)
	protoServiceRe = regexp.MustCompile(`(?m)^service (\w+) \{`)
	protoRPCRe     = regexp.MustCompile(`rpc (\w+)\(`)
	protoMessageRe = regexp.MustCompile(`(?s)message (\w+) \{(.*?)\n\}`)
	protoJSONRe    = regexp.MustCompile(`json_name = "(\w+)"`)
)

func readBookingProto(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(bookingProtoPath)
	require.NoError(t, err)
	return string(data)
}

func jsonNames(typ reflect.Type) []string {
	var names []string
	for i := 0; i < typ.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("json")
		name, _, _ := strings.Cut(tag, ",")
		if name != "" && name != "-" {
			names = append(names, name)
		}
	}
	return names
}

func TestBookingProtoMatchesServiceDesc(t *testing.T) {
	src := readBookingProto(t)

	pkg := protoPackageRe.FindStringSubmatch(src)
	svc := protoServiceRe.FindStringSubmatch(src)
	require.NotNil(t, pkg)
	require.NotNil(t, svc)
	assert.Equal(t, bookingServiceDesc.ServiceName, pkg[1]+"."+svc[1])
	assert.True(t, strings.HasSuffix(bookingServiceDesc.Metadata.(string), "booking/v1/booking.proto"))

	var rpcs []string
	for _, m := range protoRPCRe.FindAllStringSubmatch(src, -1) {
		rpcs = append(rpcs, m[1])
	}
	var methods []string
	for _, m := range bookingServiceDesc.Methods {
		methods = append(methods, m.MethodName)
	}
	assert.Equal(t, rpcs, methods)
}

func TestBookingProtoFieldNames(t *testing.T) {
	messages := map[string][]string{}
	for _, m := range protoMessageRe.FindAllStringSubmatch(readBookingProto(t), -1) {
		var fields []string
		for _, f := range protoJSONRe.FindAllStringSubmatch(m[2], -1) {
			fields = append(fields, f[1])
		}
		messages[m[1]] = fields
	}

	types := map[string]any{
		"Booking":                     models.Booking{},
		"BookingShort":                models.BookingShort{},
		"ItemBookingSummary":          models.ItemBookingSummary{},
		"CreateBookingRequest":        CreateBookingRequest{},
		"ApproveBookingRequest":       ApproveBookingRequest{},
		"GetBookingRequest":           GetBookingRequest{},
		"ListBookingsRequest":         ListBookingsRequest{},
		"ListBookingsResponse":        ListBookingsResponse{},
		"GetItemSummaryRequest":       GetItemSummaryRequest{},
		"HasCompletedBookingRequest":  HasCompletedBookingRequest{},
		"HasCompletedBookingResponse": HasCompletedBookingResponse{},
	}
	for name, v := range types {
		t.Run(name, func(t *testing.T) {
			fields, ok := messages[name]
			require.True(t, ok, "message %s is not declared", name)
			assert.Equal(t, fields, jsonNames(reflect.TypeOf(v)))
		})
	}
}
