//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

// Package nimbus is an in-memory emulator of AWS S3 and DynamoDB that
// speaks their authentic wire protocols. It serves both services on a
// single HTTP endpoint so unmodified AWS SDK clients work against it:
//
//	emu := nimbus.Must(nimbus.New())
//	srv := httptest.NewServer(emu)
//
//	api := dynamodb.NewFromConfig(cfg,
//		func(o *dynamodb.Options) { o.BaseEndpoint = aws.String(srv.URL) },
//	)
//
// DynamoDB requests are recognized by the X-Amz-Target header of the
// JSON protocol, everything else is routed to S3 path-style REST. The
// emulator holds all state in memory, nothing is persisted.
package nimbus
