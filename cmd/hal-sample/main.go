package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/ccbrown/hal"
	"github.com/ccbrown/hal/codec"
)

// SampleOrders builds the orders collection used throughout the HAL documentation: a page of two
// orders with a link to the next page and a templated link for finding orders by id.
func SampleOrders() (*hal.Resource, error) {
	orders, err := hal.NewResource(hal.OrderedMapOf(
		"currentlyProcessing", 14,
		"shippedToday", 20,
	), "/orders")
	if err != nil {
		return nil, err
	}
	if _, err := orders.Link("next", "/orders?page=2"); err != nil {
		return nil, err
	}
	if _, err := orders.Link("find", hal.Attributes{"href": "/orders{?id}", "templated": true}); err != nil {
		return nil, err
	}

	order123, err := hal.NewResource(hal.OrderedMapOf(
		"total", 30.00,
		"currency", "USD",
		"status", "shipped",
	), "/orders/123")
	if err != nil {
		return nil, err
	}
	basket, err := hal.NewLink("basket", "/baskets/98712")
	if err != nil {
		return nil, err
	}
	customer, err := hal.NewLink("customer", hal.Attributes{"href": "/customers/7809"})
	if err != nil {
		return nil, err
	}
	order123.AddLink(basket).AddLink(customer)

	order124, err := hal.NewResource(hal.OrderedMapOf(
		"total", 20.00,
		"currency", "USD",
		"status", "processing",
	), "/orders/124")
	if err != nil {
		return nil, err
	}
	if _, err := order124.Link("basket", "/baskets/97213"); err != nil {
		return nil, err
	}
	if _, err := order124.Link("customer", "/customers/12369"); err != nil {
		return nil, err
	}

	return orders.Embed("orders", order123, order124), nil
}

// Run parses the arguments and writes the encoded sample to w.
func Run(w io.Writer, logger *logrus.Logger, args ...string) error {
	flags := pflag.NewFlagSet("hal-sample", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	format := flags.StringP("format", "f", "json", "the output format: json, xml, msgpack, or yaml")
	indent := flags.String("indent", "  ", "the indentation for json and xml output, or empty for compact output")
	verbose := flags.BoolP("verbose", "v", false, "log debug output")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	c, err := codec.ByName(*format, *indent)
	if err != nil {
		return err
	}

	resource, err := SampleOrders()
	if err != nil {
		return errors.Wrap(err, "error building sample")
	}

	buf, err := c.Marshal(resource)
	if err != nil {
		return errors.Wrapf(err, "error encoding sample as %v", c.Name())
	}

	logger.WithFields(logrus.Fields{
		"content_type": c.ContentType(),
		"bytes":        len(buf),
	}).Debug("encoded sample")

	if _, err := w.Write(buf); err != nil {
		return err
	}
	if c.Name() != "msgpack" {
		_, err = fmt.Fprintln(w)
	}
	return err
}

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	if err := Run(os.Stdout, logger, os.Args[1:]...); err != nil {
		logger.WithField("error", err.Error()).Error("hal-sample failed")
		os.Exit(1)
	}
}
