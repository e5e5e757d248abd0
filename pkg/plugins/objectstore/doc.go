// Package objectstore serves plugin packages from an S3 compatible bucket.
//
// Manifests use the same format as directory packages. Identifier "a.b" maps
// to the key prefix <prefix>/a/b/ and each <name>.yaml object directly under
// it is a unit:
//
//	client, err := objectstore.NewClient(ctx, objectstore.Config{
//		Bucket:       "plugins",
//		Region:       "us-east-1",
//		Endpoint:     "http://localhost:9000",
//		UsePathStyle: true,
//	})
//	r := objectstore.NewResolver(client, "plugins", "prod", kinds)
//	l, err := loader.New[Reducer](
//		loader.WithBase("myapp.plugins"),
//		loader.WithResolver(r),
//	)
//
// Object ETags key the manifest cache, so an overwritten manifest is rebuilt
// on its next lookup.
package objectstore
